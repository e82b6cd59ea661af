package models

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type SelectionResponse struct {
	JobID string `json:"jobId"`
	Job   Job    `json:"job"`
}

// ValidationRequest carries a proposed seed set
type ValidationRequest struct {
	Seeds []int64 `json:"seeds"`
}

type ValidationResponse struct {
	Valid     bool             `json:"valid"`
	Seeds     SeedSet          `json:"seeds"`
	TotalCost float64          `json:"totalCost"`
	Errors    ValidationErrors `json:"errors,omitempty"`
}
