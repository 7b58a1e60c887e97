package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	userHandler    userHandler
	tagHandler     tagHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Project was not found"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"min"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// MessageResponse is returned by commands that have nothing but an outcome to report
type MessageResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"You have joined the project"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Started string `json:"started"`
	Uptime  string `json:"uptime"`
}
