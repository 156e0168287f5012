package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"claim-evaluation-service/internal/models"

	"github.com/google/uuid"
)

// ClaimEvaluationService fuses the image, yield and fraud signals into
// a single approve/reject verdict with a human-readable justification.
type ClaimEvaluationService struct {
	images *ImageVerificationService
	yields *YieldPredictionService
	fraud  *FraudDetectionService
}

func NewClaimEvaluationService(images *ImageVerificationService, yields *YieldPredictionService, fraud *FraudDetectionService) *ClaimEvaluationService {
	return &ClaimEvaluationService{
		images: images,
		yields: yields,
		fraud:  fraud,
	}
}

// Evaluate runs the full pipeline for one claim. Evaluation is
// all-or-nothing: any signal failure aborts without a partial verdict.
// The only cross-request side effect is the image-hash insertion
// inside image verification.
func (s *ClaimEvaluationService) Evaluate(ctx context.Context, req models.ClaimEvaluationRequest) (*models.Verdict, error) {
	// Input validation runs before image verification: the duplicate
	// check inserts the image hash as a side effect, and a claim bounced
	// for malformed input must leave no trace, or the corrected
	// resubmission would be rejected as a duplicate of itself.
	if _, err := LandSizeToHectares(req.LandSize); err != nil {
		return nil, err
	}

	imageResult, err := s.images.Verify(ctx, req.ImageRef, req.CropType)
	if err != nil {
		return nil, err
	}

	// Yield prediction needs sowing date, soil, irrigation and
	// fertilizer. When any is missing the claimant's own expectation
	// stands in as the prediction: a documented degradation, not an
	// error, so sparse claims still get evaluated.
	predictedYield := req.ExpectedYield
	if req.SowingDate != "" && req.SoilType != "" && req.IrrigationType != "" && req.FertilizerUsage != nil {
		yieldResult, err := s.yields.Predict(models.YieldPredictionRequest{
			CropType:        req.CropType,
			LandSize:        req.LandSize,
			SowingDate:      req.SowingDate,
			SoilType:        req.SoilType,
			IrrigationType:  req.IrrigationType,
			FertilizerUsage: *req.FertilizerUsage,
			Weather:         req.Weather,
		})
		if err != nil {
			slog.Warn("yield prediction failed, using expected yield", "error", err)
		} else {
			predictedYield = yieldResult.PredictedYield
		}
	} else {
		slog.Info("insufficient data for yield prediction, using expected yield")
	}

	fraudResult, err := s.fraud.Detect(models.FraudDetectionRequest{
		CropType:         req.CropType,
		LandSize:         req.LandSize,
		ExpectedYield:    req.ExpectedYield,
		ClaimAmount:      req.ClaimAmount,
		Weather:          req.Weather,
		HistoricalClaims: req.HistoricalClaims,
		UserID:           req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("claim evaluation failed: %w", err)
	}

	approved, reason := decide(decisionInput{
		DamageConfidence: imageResult.DamageConfidence,
		IsDuplicate:      imageResult.IsDuplicate,
		PredictedYield:   predictedYield,
		ExpectedYield:    req.ExpectedYield,
		FraudDetected:    fraudResult.FraudDetected,
		FraudScore:       fraudResult.FraudScore,
		ClaimAmount:      req.ClaimAmount,
	})

	verdict := &models.Verdict{
		EvaluationID:     uuid.New().String(),
		Approved:         approved,
		DamageConfidence: round2(imageResult.DamageConfidence),
		PredictedYield:   round2(predictedYield),
		FraudDetected:    fraudResult.FraudDetected,
		IsDuplicate:      imageResult.IsDuplicate,
		Reason:           reason,
		Recommendations: recommendations(approved, imageResult.DamageConfidence,
			imageResult.IsDuplicate, fraudResult.FraudDetected, predictedYield, req.ExpectedYield),
		ImageHash: imageResult.ImageHash,
	}
	if fraudResult.FraudDetected {
		score := round2(fraudResult.FraudScore)
		verdict.FraudScore = &score
	}

	slog.Info("claim evaluation completed",
		"user_id", req.UserID,
		"approved", verdict.Approved,
		"reason", verdict.Reason)

	return verdict, nil
}

// decisionInput carries the fused signals into the rule cascade.
type decisionInput struct {
	DamageConfidence float64
	IsDuplicate      bool
	PredictedYield   float64
	ExpectedYield    float64
	FraudDetected    bool
	FraudScore       float64
	ClaimAmount      float64
}

// decide applies the priority-ordered rule cascade. Rules 1-3 are
// terminal rejections; rules 4-6 accumulate soft findings that reject
// in combination; a single soft finding approves with conditions.
func decide(in decisionInput) (bool, string) {
	var findings []string

	// Rule 1: duplicate image is an immediate rejection, regardless of
	// every other signal.
	if in.IsDuplicate {
		return false, "Claim rejected: Duplicate image detected. This image has been used in a previous claim."
	}

	// Rule 2: high-confidence fraud.
	if in.FraudDetected && in.FraudScore > 70 {
		return false, fmt.Sprintf("Claim rejected: High fraud risk detected (score: %.1f). Multiple anomalies identified in claim data.", in.FraudScore)
	}

	// Rule 3: no usable evidence of damage.
	if in.DamageConfidence < 30 {
		return false, fmt.Sprintf("Claim rejected: Insufficient evidence of crop damage (confidence: %.1f%%). Please provide clearer images of the damage.", in.DamageConfidence)
	}

	// Rule 4: yield discrepancy beyond 50%.
	yieldDiscrepancy := 0.0
	if in.ExpectedYield > 0 {
		diff := in.PredictedYield - in.ExpectedYield
		if diff < 0 {
			diff = -diff
		}
		yieldDiscrepancy = diff / in.ExpectedYield
	}
	if yieldDiscrepancy > 0.5 {
		findings = append(findings, fmt.Sprintf("Significant discrepancy between predicted yield (%.1f) and expected yield (%.1f)", in.PredictedYield, in.ExpectedYield))
	}

	// Rule 5: moderate fraud risk.
	if in.FraudDetected && in.FraudScore > 50 {
		findings = append(findings, fmt.Sprintf("Moderate fraud risk detected (score: %.1f)", in.FraudScore))
	}

	// Rule 6: low damage confidence.
	if in.DamageConfidence < 50 {
		findings = append(findings, fmt.Sprintf("Low damage confidence (%.1f%%)", in.DamageConfidence))
	}

	if len(findings) >= 2 {
		return false, fmt.Sprintf("Claim rejected: %s", strings.Join(findings, ", "))
	}

	if in.FraudDetected && in.FraudScore > 60 {
		detail := "Anomalies found in claim data."
		if len(findings) > 0 {
			detail = strings.Join(findings, ", ")
		}
		return false, fmt.Sprintf("Claim rejected: Fraud detected with score %.1f. %s", in.FraudScore, detail)
	}

	if in.DamageConfidence < 40 {
		return false, fmt.Sprintf("Claim rejected: Low damage confidence (%.1f%%). Please provide better quality images showing clear crop damage.", in.DamageConfidence)
	}

	if len(findings) > 0 {
		return true, fmt.Sprintf("Claim approved with conditions: %s. Further review recommended.", strings.Join(findings, ", "))
	}

	return true, "Claim approved: All checks passed. Damage verified, no fraud detected, yield predictions align."
}

// recommendations generates farmer-facing guidance keyed off the same
// signals plus the final decision. Side-effect free; recommendations
// are additive and follow the check order of the cascade.
func recommendations(approved bool, damageConfidence float64, isDuplicate, fraudDetected bool, predictedYield, expectedYield float64) []string {
	var recs []string

	if !approved {
		if isDuplicate {
			recs = append(recs, "Please submit original images of the crop damage")
		}
		if fraudDetected {
			recs = append(recs, "Review claim details and ensure all information is accurate")
		}
		if damageConfidence < 50 {
			recs = append(recs, "Submit clearer, higher resolution images showing crop damage")
		}
	} else {
		if damageConfidence < 70 {
			recs = append(recs, "For future claims, provide clearer images to expedite processing")
		}

		yieldDiff := predictedYield - expectedYield
		if yieldDiff < 0 {
			yieldDiff = -yieldDiff
		}
		if yieldDiff > 5 {
			recs = append(recs, "Consider reviewing yield expectations based on current conditions")
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Claim processed successfully")
	}

	return recs
}
