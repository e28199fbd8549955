package handler

// errorResponse documents the failure envelope rendered by the API error
// handler.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"   example:"VALIDATION_ERROR"`
	Message string `json:"message" example:"Invalid email address"`
}
