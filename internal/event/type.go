package event

const ClaimEvaluatedQueue string = "claim_evaluated_events"

// ClaimEvaluatedEvent is emitted after every completed claim
// evaluation so downstream services (payouts, notifications) can react
// without polling.
type ClaimEvaluatedEvent struct {
	EvaluationID string         `json:"evaluation_id"`
	UserID       string         `json:"user_id"`
	Approved     bool           `json:"approved"`
	Reason       string         `json:"reason"`
	FraudScore   *float64       `json:"fraud_score,omitempty"`
	Additional   map[string]any `json:"additional,omitempty"`
}
