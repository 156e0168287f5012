package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CropType is the closed crop enumeration used for feature encoding.
type CropType string

const (
	CropRice      CropType = "rice"
	CropWheat     CropType = "wheat"
	CropCotton    CropType = "cotton"
	CropSugarcane CropType = "sugarcane"
	CropMaize     CropType = "maize"
	CropUnknown   CropType = "unknown"
)

// SoilType is the closed soil enumeration.
type SoilType string

const (
	SoilAlluvial SoilType = "alluvial"
	SoilBlack    SoilType = "black"
	SoilRed      SoilType = "red"
	SoilLaterite SoilType = "laterite"
	SoilDesert   SoilType = "desert"
	SoilUnknown  SoilType = "unknown"
)

// IrrigationType is the closed irrigation enumeration.
type IrrigationType string

const (
	IrrigationDrip      IrrigationType = "drip"
	IrrigationSprinkler IrrigationType = "sprinkler"
	IrrigationFlood     IrrigationType = "flood"
	IrrigationRainfed   IrrigationType = "rainfed"
	IrrigationUnknown   IrrigationType = "unknown"
)

// Numeric encodings must stay stable: they are part of the feature
// vector contract the downstream models were fit with.
var cropEncoding = map[CropType]float64{
	CropRice:      0,
	CropWheat:     1,
	CropCotton:    2,
	CropSugarcane: 3,
	CropMaize:     4,
}

var soilEncoding = map[SoilType]float64{
	SoilAlluvial: 0,
	SoilBlack:    1,
	SoilRed:      2,
	SoilLaterite: 3,
	SoilDesert:   4,
}

var irrigationEncoding = map[IrrigationType]float64{
	IrrigationDrip:      0,
	IrrigationSprinkler: 1,
	IrrigationFlood:     2,
	IrrigationRainfed:   3,
}

// EncodeCropType returns the numeric code for a crop. Unrecognized
// crops encode as 0, matching the encoding the models were trained on.
func EncodeCropType(c CropType) float64 {
	return cropEncoding[c]
}

// EncodeSoilType returns the numeric code for a soil type.
func EncodeSoilType(s SoilType) float64 {
	return soilEncoding[s]
}

// EncodeIrrigationType returns the numeric code for an irrigation type.
func EncodeIrrigationType(i IrrigationType) float64 {
	return irrigationEncoding[i]
}

// WeatherInput is the raw weather snapshot as submitted with a claim.
// Pointer fields distinguish "not reported" from a reported zero.
type WeatherInput struct {
	Temperature   *float64 `json:"temperature"`
	Rainfall      *float64 `json:"rainfall"`
	Humidity      *float64 `json:"humidity"`
	WindSpeed     *float64 `json:"wind_speed"`
	SunshineHours *float64 `json:"sunshine_hours"`
}

// WeatherFeatures is the fixed weather record after normalization.
// Every field is populated, either from the input or from the
// documented defaults.
type WeatherFeatures struct {
	Temperature   float64
	Rainfall      float64
	Humidity      float64
	WindSpeed     float64
	SunshineHours float64
}

// ImageVerificationResult holds the damage and duplicate signals for a
// submitted image.
type ImageVerificationResult struct {
	DamageConfidence    float64 `json:"damage_confidence"`
	IsDuplicate         bool    `json:"is_duplicate"`
	DuplicateConfidence float64 `json:"duplicate_confidence"`
	ImageHash           string  `json:"image_hash"`
}

// SatelliteVerificationResult classifies a satellite crop image.
type SatelliteVerificationResult struct {
	PredictedClass     string             `json:"predicted_class"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	IsDamaged          bool               `json:"is_damaged"`
}

// YieldPredictionResult holds the yield estimate plus farmer guidance.
type YieldPredictionResult struct {
	PredictedYield  float64  `json:"predicted_yield"`
	Confidence      float64  `json:"confidence"`
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
}

// FraudDetectionResult holds the bounded fraud score and the derived
// features that triggered it.
type FraudDetectionResult struct {
	FraudDetected   bool     `json:"fraud_detected"`
	FraudScore      float64  `json:"fraud_score"`
	AnomalyFeatures []string `json:"anomaly_features"`
	Confidence      float64  `json:"confidence"`
}

// Verdict is the final fused decision for a claim. It is created once
// per evaluation, with its EvaluationID, and never mutated afterwards.
// FraudScore is only set when fraud was detected. ImageHash is carried
// for persistence but kept out of the API payload.
type Verdict struct {
	EvaluationID     string   `json:"evaluation_id,omitempty"`
	Approved         bool     `json:"approved"`
	DamageConfidence float64  `json:"damage_confidence"`
	PredictedYield   float64  `json:"predicted_yield"`
	FraudDetected    bool     `json:"fraud_detected"`
	FraudScore       *float64 `json:"fraud_score,omitempty"`
	IsDuplicate      bool     `json:"is_duplicate"`
	Reason           string   `json:"reason"`
	Recommendations  []string `json:"recommendations"`
	ImageHash        string   `json:"-"`
}

// EvaluationRecord is the persisted form of a completed evaluation.
type EvaluationRecord struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           *string        `db:"user_id" json:"user_id,omitempty"`
	CropType         string         `db:"crop_type" json:"crop_type"`
	LandSize         string         `db:"land_size" json:"land_size"`
	ExpectedYield    float64        `db:"expected_yield" json:"expected_yield"`
	ClaimAmount      float64        `db:"claim_amount" json:"claim_amount"`
	ImageHash        string         `db:"image_hash" json:"image_hash"`
	Approved         bool           `db:"approved" json:"approved"`
	DamageConfidence float64        `db:"damage_confidence" json:"damage_confidence"`
	PredictedYield   float64        `db:"predicted_yield" json:"predicted_yield"`
	FraudDetected    bool           `db:"fraud_detected" json:"fraud_detected"`
	FraudScore       *float64       `db:"fraud_score" json:"fraud_score,omitempty"`
	IsDuplicate      bool           `db:"is_duplicate" json:"is_duplicate"`
	Reason           string         `db:"reason" json:"reason"`
	Recommendations  pq.StringArray `db:"recommendations" json:"recommendations"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}
