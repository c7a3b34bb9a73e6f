package dto

// ManualEscalationRequest payload. A missing target_user_id lets the engine
// pick a target through its fallback chain.
type ManualEscalationRequest struct {
	ViolationID  string  `json:"violation_id"`
	TargetUserID *string `json:"target_user_id,omitempty"`
	Reason       string  `json:"reason"`
	Notes        string  `json:"notes,omitempty"`
}
