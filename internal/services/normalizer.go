package services

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"claim-evaluation-service/internal/models"
)

// areaConversionFactors maps area units to hectares. Regional units
// (bigha, katha) vary by state; these are the factors the models were
// trained against.
var areaConversionFactors = map[string]float64{
	"acre":     0.404686,
	"acres":    0.404686,
	"hectare":  1.0,
	"hectares": 1.0,
	"bigha":    0.1338,
	"katha":    0.0067,
	"kanal":    0.0506,
	"marla":    0.0025,
	"guntha":   0.0101,
	"cent":     0.0040,
	"cents":    0.0040,
}

// cropSynonyms maps free-text crop names, including transliterated
// Hindi names, onto the closed crop enum.
var cropSynonyms = map[string]models.CropType{
	"rice":      models.CropRice,
	"धान":       models.CropRice,
	"wheat":     models.CropWheat,
	"गेहूं":     models.CropWheat,
	"cotton":    models.CropCotton,
	"कपास":      models.CropCotton,
	"sugarcane": models.CropSugarcane,
	"गन्ना":     models.CropSugarcane,
	"maize":     models.CropMaize,
	"मक्का":     models.CropMaize,
	"corn":      models.CropMaize,
}

// ParseLandSize splits a land-size string like "5 acre" into its value
// and unit. Fewer than two tokens or a non-numeric value is an input
// format error; the claim is not processed.
func ParseLandSize(landSize string) (float64, string, error) {
	parts := strings.Fields(landSize)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("%w: land size %q must include value and unit, e.g. '5 acre'", models.ErrInputFormat, landSize)
	}

	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: land size value %q is not numeric", models.ErrInputFormat, parts[0])
	}

	return value, strings.ToLower(parts[1]), nil
}

// ToHectares converts an area to hectares. An unknown unit passes the
// value through unconverted: a mistyped unit degrades one claim's
// feature quality instead of failing the claim.
func ToHectares(value float64, unit string) float64 {
	factor, ok := areaConversionFactors[strings.ToLower(unit)]
	if !ok {
		slog.Warn("unknown area unit, assuming hectares", "unit", unit)
		return value
	}
	return value * factor
}

// LandSizeToHectares parses and converts a land-size string in one step.
func LandSizeToHectares(landSize string) (float64, error) {
	value, unit, err := ParseLandSize(landSize)
	if err != nil {
		return 0, err
	}
	return ToHectares(value, unit), nil
}

// NormalizeCropType maps a free-text crop name onto the crop enum.
// Unrecognized names pass through lowercased rather than failing;
// encoding treats them as the zero crop code.
func NormalizeCropType(cropType string) models.CropType {
	normalized := strings.ToLower(strings.TrimSpace(cropType))
	if crop, ok := cropSynonyms[normalized]; ok {
		return crop
	}
	return models.CropType(normalized)
}

// NormalizeSoilType lowercases and trims a soil type string.
func NormalizeSoilType(soilType string) models.SoilType {
	return models.SoilType(strings.ToLower(strings.TrimSpace(soilType)))
}

// NormalizeIrrigationType lowercases and trims an irrigation type string.
func NormalizeIrrigationType(irrigationType string) models.IrrigationType {
	return models.IrrigationType(strings.ToLower(strings.TrimSpace(irrigationType)))
}

// Weather defaults used when a snapshot is missing fields entirely.
const (
	defaultTemperature   = 25.0 // °C
	defaultRainfall      = 0.0  // mm
	defaultHumidity      = 60.0 // %
	defaultWindSpeed     = 5.0  // km/h
	defaultSunshineHours = 8.0  // h/day
)

// ExtractWeather fills a fixed weather record from an optional
// snapshot, substituting documented defaults for every missing field.
// Type coercion of present values happens at the JSON boundary.
func ExtractWeather(w *models.WeatherInput) models.WeatherFeatures {
	features := models.WeatherFeatures{
		Temperature:   defaultTemperature,
		Rainfall:      defaultRainfall,
		Humidity:      defaultHumidity,
		WindSpeed:     defaultWindSpeed,
		SunshineHours: defaultSunshineHours,
	}
	if w == nil {
		return features
	}

	if w.Temperature != nil {
		features.Temperature = *w.Temperature
	}
	if w.Rainfall != nil {
		features.Rainfall = *w.Rainfall
	}
	if w.Humidity != nil {
		features.Humidity = *w.Humidity
	}
	if w.WindSpeed != nil {
		features.WindSpeed = *w.WindSpeed
	}
	if w.SunshineHours != nil {
		features.SunshineHours = *w.SunshineHours
	}
	return features
}
