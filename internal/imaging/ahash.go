package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"math/bits"
	"strconv"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// HashBits is the width of a perceptual hash.
const HashBits = 64

// Decode decodes image bytes into a pixel grid. JPEG, PNG and GIF are
// registered.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}

// AverageHash computes the 64-bit average hash (aHash) of an image:
// downsample to an 8x8 grayscale grid, then set bit i when pixel i is
// brighter than the grid mean. Visually similar images, including
// re-compressed or resized copies, land within a small Hamming
// distance of each other. Not cryptographic.
func AverageHash(img image.Image) string {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sum int
	for _, p := range gray.Pix {
		sum += int(p)
	}
	mean := float64(sum) / 64.0

	var hash uint64
	for i, p := range gray.Pix {
		if float64(p) > mean {
			hash |= 1 << uint(63-i)
		}
	}

	return fmt.Sprintf("%016x", hash)
}

// ComputeHash hashes raw image bytes for duplicate detection. If the
// bytes cannot be decoded as an image, it falls back to a cryptographic
// content hash truncated to the same 64-bit width, so exact re-uploads
// of an unreadable file still match while similarity math stays defined.
func ComputeHash(data []byte) string {
	img, err := Decode(data)
	if err != nil {
		slog.Warn("perceptual hash failed, falling back to content hash", "error", err)
		sum := sha256.Sum256(data)
		return fmt.Sprintf("%016x", binary.BigEndian.Uint64(sum[:8]))
	}
	return AverageHash(img)
}

// HammingSimilarity returns the normalized similarity between two
// 64-bit hex hashes: 1 - hamming_distance/64. Unparseable hashes
// compare as fully dissimilar.
func HammingSimilarity(hash1, hash2 string) float64 {
	a, err1 := strconv.ParseUint(hash1, 16, 64)
	b, err2 := strconv.ParseUint(hash2, 16, 64)
	if err1 != nil || err2 != nil {
		return 0.0
	}

	distance := bits.OnesCount64(a ^ b)
	return 1.0 - float64(distance)/float64(HashBits)
}
