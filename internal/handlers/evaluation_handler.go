package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"claim-evaluation-service/internal/database/minio"
	"claim-evaluation-service/internal/event"
	"claim-evaluation-service/internal/models"
	"claim-evaluation-service/internal/repository"
	"claim-evaluation-service/internal/services"
	"claim-evaluation-service/internal/utils"
	"claim-evaluation-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// maxBatchSize bounds a single batch request; larger batches should go
// through repeated calls.
const maxBatchSize = 100

type EvaluationHandler struct {
	imageService     *services.ImageVerificationService
	satelliteService *services.SatelliteVerificationService
	yieldService     *services.YieldPredictionService
	fraudService     *services.FraudDetectionService
	claimService     *services.ClaimEvaluationService
	pool             *worker.EvaluationPool
	hashStore        repository.HashStore

	// Optional infrastructure. A nil field disables the corresponding
	// feature instead of failing requests.
	evaluations *repository.EvaluationRepository
	publisher   *event.VerdictPublisher
	storage     *minio.MinioClient
}

func NewEvaluationHandler(
	imageService *services.ImageVerificationService,
	satelliteService *services.SatelliteVerificationService,
	yieldService *services.YieldPredictionService,
	fraudService *services.FraudDetectionService,
	claimService *services.ClaimEvaluationService,
	pool *worker.EvaluationPool,
	hashStore repository.HashStore,
	evaluations *repository.EvaluationRepository,
	publisher *event.VerdictPublisher,
	storage *minio.MinioClient,
) *EvaluationHandler {
	return &EvaluationHandler{
		imageService:     imageService,
		satelliteService: satelliteService,
		yieldService:     yieldService,
		fraudService:     fraudService,
		claimService:     claimService,
		pool:             pool,
		hashStore:        hashStore,
		evaluations:      evaluations,
		publisher:        publisher,
		storage:          storage,
	}
}

func (h *EvaluationHandler) Register(app *fiber.App) {
	api := app.Group("ml/api/v1")

	api.Get("/health", h.Health) // GET /ml/api/v1/health

	imageGroup := api.Group("/images")
	imageGroup.Post("/upload", h.UploadImage) // POST /ml/api/v1/images/upload

	api.Post("/verify-image", h.VerifyImage)         // POST /ml/api/v1/verify-image
	api.Post("/verify-satellite", h.VerifySatellite) // POST /ml/api/v1/verify-satellite
	api.Post("/predict-yield", h.PredictYield)       // POST /ml/api/v1/predict-yield
	api.Post("/detect-fraud", h.DetectFraud)         // POST /ml/api/v1/detect-fraud
	api.Post("/evaluate-claim", h.EvaluateClaim)     // POST /ml/api/v1/evaluate-claim
	api.Post("/evaluate-claims", h.EvaluateClaims)   // POST /ml/api/v1/evaluate-claims

	api.Get("/evaluations", h.ListEvaluations) // GET /ml/api/v1/evaluations?user_id=
	evalGroup := api.Group("/evaluations")
	evalGroup.Get("/:id", h.GetEvaluation) // GET /ml/api/v1/evaluations/:id
}

// Health reports model readiness and infrastructure status.
func (h *EvaluationHandler) Health(c fiber.Ctx) error {
	models := map[string]string{
		"damage_classifier":    h.imageService.Readiness().String(),
		"satellite_classifier": h.satelliteService.Readiness().String(),
		"yield_predictor":      h.yieldService.Readiness().String(),
		"fraud_detector":       h.fraudService.Readiness().String(),
	}
	overall := "healthy"
	for _, state := range models {
		if state != "loaded" {
			overall = "degraded"
			break
		}
	}
	status := map[string]any{
		"status":             overall,
		"models":             models,
		"known_image_hashes": h.hashStore.Size(),
	}
	if h.publisher != nil {
		status["event_publisher"] = h.publisher.HealthCheck()
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(status))
}

// UploadImage stores a claim image in object storage and returns the
// reference to use in subsequent verification requests.
func (h *EvaluationHandler) UploadImage(c fiber.Ctx) error {
	if h.storage == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("STORAGE_UNAVAILABLE", "Image storage is not configured"))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Missing image file: "+err.Error()))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Could not open uploaded file: "+err.Error()))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed reading uploaded image", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_ERROR", "Failed to read uploaded file"))
	}

	objectName := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.storage.UploadBytes(c.Context(), minio.Storage.ClaimImages, objectName, data, contentType); err != nil {
		slog.Error("failed uploading image to storage", "object", objectName, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("UPLOAD_FAILED", "Failed to store image"))
	}

	slog.Info("claim image uploaded", "object", objectName, "size", len(data))
	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(fiber.Map{
		"image_ref": objectName,
	}))
}

// VerifyImage runs damage detection and the duplicate check.
func (h *EvaluationHandler) VerifyImage(c fiber.Ctx) error {
	var req models.ImageVerificationRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}
	if req.ImageRef == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "image_ref is required"))
	}

	result, err := h.imageService.Verify(c.Context(), req.ImageRef, req.CropType)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(result))
}

// VerifySatellite classifies a satellite crop image.
func (h *EvaluationHandler) VerifySatellite(c fiber.Ctx) error {
	var req models.SatelliteVerificationRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}
	if req.ImageRef == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "image_ref is required"))
	}

	result, err := h.satelliteService.Verify(c.Context(), req.ImageRef)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(result))
}

// PredictYield runs the yield model alone.
func (h *EvaluationHandler) PredictYield(c fiber.Ctx) error {
	var req models.YieldPredictionRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}
	if req.CropType == "" || req.LandSize == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "crop_type and land_size are required"))
	}

	result, err := h.yieldService.Predict(req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(result))
}

// DetectFraud runs the anomaly scorer alone.
func (h *EvaluationHandler) DetectFraud(c fiber.Ctx) error {
	var req models.FraudDetectionRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}
	if req.CropType == "" || req.LandSize == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "crop_type and land_size are required"))
	}

	result, err := h.fraudService.Detect(req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(result))
}

// EvaluateClaim runs the full pipeline for a single claim, persists the
// verdict and emits the claim_evaluated event.
func (h *EvaluationHandler) EvaluateClaim(c fiber.Ctx) error {
	var req models.ClaimEvaluationRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}
	if req.ImageRef == "" || req.CropType == "" || req.LandSize == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "image_ref, crop_type and land_size are required"))
	}

	verdict, err := h.claimService.Evaluate(c.Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	h.finalizeVerdict(c.Context(), req, verdict)

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(verdict))
}

// EvaluateClaims evaluates a batch of claims over the worker pool.
func (h *EvaluationHandler) EvaluateClaims(c fiber.Ctx) error {
	var req models.BatchEvaluationRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}
	if len(req.Claims) == 0 {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "claims must not be empty"))
	}
	if len(req.Claims) > maxBatchSize {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED",
				fmt.Sprintf("batch size %d exceeds the maximum of %d", len(req.Claims), maxBatchSize)))
	}

	items := h.pool.Run(c.Context(), req.Claims)
	for i := range items {
		if items[i].Verdict != nil {
			h.finalizeVerdict(c.Context(), req.Claims[items[i].Index], items[i].Verdict)
		}
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{
		"results": items,
	}))
}

// ListEvaluations fetches a user's stored evaluations, newest first.
func (h *EvaluationHandler) ListEvaluations(c fiber.Ctx) error {
	if h.evaluations == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("STORAGE_UNAVAILABLE", "Evaluation storage is not configured"))
	}

	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", "user_id query parameter is required"))
	}

	records, err := h.evaluations.GetByUserID(c.Context(), userID)
	if err != nil {
		slog.Error("failed to list claim evaluations", "user_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_ERROR", "Failed to fetch evaluations"))
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(fiber.Map{
		"evaluations": records,
	}))
}

// GetEvaluation fetches a previously stored evaluation.
func (h *EvaluationHandler) GetEvaluation(c fiber.Ctx) error {
	if h.evaluations == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("STORAGE_UNAVAILABLE", "Evaluation storage is not configured"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid evaluation ID"))
	}

	record, err := h.evaluations.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", "Evaluation not found"))
	}
	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(record))
}

// finalizeVerdict persists the verdict and publishes the evaluation
// event. Both are best-effort: the verdict already answers the request,
// so storage or broker outages only cost the audit trail.
func (h *EvaluationHandler) finalizeVerdict(ctx context.Context, req models.ClaimEvaluationRequest, verdict *models.Verdict) {
	id, err := uuid.Parse(verdict.EvaluationID)
	if err != nil {
		id = uuid.New()
	}

	if h.evaluations != nil {
		record := &models.EvaluationRecord{
			ID:               id,
			CropType:         req.CropType,
			LandSize:         req.LandSize,
			ExpectedYield:    req.ExpectedYield,
			ClaimAmount:      req.ClaimAmount,
			ImageHash:        verdict.ImageHash,
			Approved:         verdict.Approved,
			DamageConfidence: verdict.DamageConfidence,
			PredictedYield:   verdict.PredictedYield,
			FraudDetected:    verdict.FraudDetected,
			FraudScore:       verdict.FraudScore,
			IsDuplicate:      verdict.IsDuplicate,
			Reason:           verdict.Reason,
			Recommendations:  verdict.Recommendations,
			CreatedAt:        time.Now().UTC(),
		}
		if req.UserID != "" {
			record.UserID = &req.UserID
		}

		if err := h.evaluations.Create(ctx, record); err != nil {
			slog.Warn("failed to persist claim evaluation", "evaluation_id", id, "error", err)
		}
	}

	if h.publisher != nil {
		evt := event.ClaimEvaluatedEvent{
			EvaluationID: id.String(),
			UserID:       req.UserID,
			Approved:     verdict.Approved,
			Reason:       verdict.Reason,
			FraudScore:   verdict.FraudScore,
		}
		if err := h.publisher.PublishEvent(ctx, evt); err != nil {
			slog.Warn("failed to publish claim evaluated event", "evaluation_id", id, "error", err)
		}
	}
}

// errorResponse maps service errors onto HTTP statuses.
func (h *EvaluationHandler) errorResponse(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrInputFormat):
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_INPUT", err.Error()))
	case errors.Is(err, models.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, models.ErrModelUnavailable):
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("MODEL_UNAVAILABLE", err.Error()))
	default:
		slog.Error("claim evaluation request failed", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_ERROR", "An unexpected error occurred"))
	}
}
