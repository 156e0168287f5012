package models

// Feature vector layouts. The positions below are part of the model
// contract: they must match the order the underlying estimators were
// fit with, so they are fixed here rather than implied by builder code.

// Yield feature vector (13 elements).
const (
	YieldFeatCropType = iota
	YieldFeatAreaHectares
	YieldFeatDaysSinceSowing
	YieldFeatSoilType
	YieldFeatIrrigationType
	YieldFeatFertilizerKgPerHa
	YieldFeatTemperature
	YieldFeatRainfall
	YieldFeatHumidity
	YieldFeatWindSpeed
	YieldFeatSunshineHours
	YieldFeatSeasonKharif
	YieldFeatSeasonRabi

	YieldFeatureCount
)

// Fraud feature vector (12 elements).
const (
	FraudFeatCropType = iota
	FraudFeatAreaHectares
	FraudFeatExpectedYield
	FraudFeatClaimAmount
	FraudFeatYieldPerHectare
	FraudFeatClaimPerHectare
	FraudFeatClaimToYieldRatio
	FraudFeatHistoricalClaims
	FraudFeatTemperature
	FraudFeatRainfall
	FraudFeatHumidity
	FraudFeatWeatherAnomalyScore

	FraudFeatureCount
)
