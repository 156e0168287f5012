package models

// ImageVerificationRequest asks for damage and duplicate checks on a
// previously uploaded (or locally reachable) image.
type ImageVerificationRequest struct {
	ImageRef string `json:"image_ref"`
	CropType string `json:"crop_type,omitempty"`
}

// SatelliteVerificationRequest asks for classification of a satellite
// crop image.
type SatelliteVerificationRequest struct {
	ImageRef string `json:"image_ref"`
}

// YieldPredictionRequest carries the agronomic parameters the yield
// model was fit with. All fields except weather are required.
type YieldPredictionRequest struct {
	CropType        string        `json:"crop_type"`
	LandSize        string        `json:"land_size"`
	SowingDate      string        `json:"sowing_date"`
	SoilType        string        `json:"soil_type"`
	IrrigationType  string        `json:"irrigation_type"`
	FertilizerUsage float64       `json:"fertilizer_usage"`
	Weather         *WeatherInput `json:"weather_features,omitempty"`
}

// FraudDetectionRequest carries the claim-level fields the anomaly
// detector scores.
type FraudDetectionRequest struct {
	CropType         string        `json:"crop_type"`
	LandSize         string        `json:"land_size"`
	ExpectedYield    float64       `json:"expected_yield"`
	ClaimAmount      float64       `json:"claim_amount"`
	Weather          *WeatherInput `json:"weather_features,omitempty"`
	HistoricalClaims int           `json:"historical_claims"`
	UserID           string        `json:"user_id,omitempty"`
}

// ClaimEvaluationRequest is the full claim submission. SowingDate,
// SoilType and IrrigationType are optional (empty string means absent);
// FertilizerUsage is a pointer so an explicit zero still counts as
// present. Yield prediction only runs when all four are present.
type ClaimEvaluationRequest struct {
	ImageRef         string        `json:"image_ref"`
	CropType         string        `json:"crop_type"`
	LandSize         string        `json:"land_size"`
	ExpectedYield    float64       `json:"expected_yield"`
	ClaimAmount      float64       `json:"claim_amount"`
	Weather          *WeatherInput `json:"weather_features,omitempty"`
	SowingDate       string        `json:"sowing_date,omitempty"`
	SoilType         string        `json:"soil_type,omitempty"`
	IrrigationType   string        `json:"irrigation_type,omitempty"`
	FertilizerUsage  *float64      `json:"fertilizer_usage,omitempty"`
	HistoricalClaims int           `json:"historical_claims"`
	UserID           string        `json:"user_id,omitempty"`
}

// BatchEvaluationRequest evaluates several claims concurrently.
type BatchEvaluationRequest struct {
	Claims []ClaimEvaluationRequest `json:"claims"`
}

// BatchEvaluationItem is one outcome of a batch evaluation. Exactly one
// of Verdict and Error is set.
type BatchEvaluationItem struct {
	Index   int      `json:"index"`
	Verdict *Verdict `json:"verdict,omitempty"`
	Error   string   `json:"error,omitempty"`
}
