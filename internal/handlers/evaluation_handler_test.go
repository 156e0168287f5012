package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/repository"
	"claim-evaluation-service/internal/services"
	"claim-evaluation-service/internal/utils"
	"claim-evaluation-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type memoryLoader struct {
	data []byte
}

func (l *memoryLoader) Load(_ context.Context, _ string) ([]byte, error) {
	return l.data, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newTestApp wires a fiber app over baseline models and in-memory
// infrastructure. A nil db still yields a usable repository value, so
// the routes that only validate input stay reachable without Postgres.
func newTestApp(t *testing.T, evaluations *repository.EvaluationRepository) *fiber.App {
	t.Helper()

	loader := &memoryLoader{data: testPNG(t)}
	hashStore := repository.NewMemoryHashStore(0.95)

	imageService := services.NewImageVerificationService(loader, ml.NewBaselineDamageModel(), hashStore)
	satelliteService := services.NewSatelliteVerificationService(loader, ml.NewBaselineSatelliteModel())
	yieldService := services.NewYieldPredictionService(ml.NewBaselineYieldModel())
	fraudService := services.NewFraudDetectionService(ml.NewBaselineAnomalyModel())
	claimService := services.NewClaimEvaluationService(imageService, yieldService, fraudService)
	pool := worker.NewEvaluationPool(2, claimService)

	handler := NewEvaluationHandler(
		imageService, satelliteService, yieldService, fraudService, claimService,
		pool, hashStore, evaluations, nil, nil)

	app := fiber.New()
	handler.Register(app)
	return app
}

func decodeError(t *testing.T, resp *http.Response) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// ============================================================================
// TEST SUITE 1: EVALUATION LISTING
// ============================================================================

func TestListEvaluations_MissingUserIDRejected(t *testing.T) {
	app := newTestApp(t, repository.NewEvaluationRepository(nil))

	req := httptest.NewRequest(http.MethodGet, "/ml/api/v1/evaluations", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
}

func TestListEvaluations_StorageNotConfigured(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ml/api/v1/evaluations?user_id=farmer-1", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, "STORAGE_UNAVAILABLE", body.Error.Code)
}

func TestGetEvaluation_InvalidIDRejected(t *testing.T) {
	app := newTestApp(t, repository.NewEvaluationRepository(nil))

	req := httptest.NewRequest(http.MethodGet, "/ml/api/v1/evaluations/not-a-uuid", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ============================================================================
// TEST SUITE 2: HEALTH AND VALIDATION
// ============================================================================

func TestHealth_ReportsModelStates(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ml/api/v1/health", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyImage_MissingImageRefRejected(t *testing.T) {
	app := newTestApp(t, nil)

	payload := bytes.NewBufferString(`{"crop_type":"rice"}`)
	req := httptest.NewRequest(http.MethodPost, "/ml/api/v1/verify-image", payload)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
