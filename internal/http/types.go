package http

// HealthResponse is the response body for GET /health. Exercises is -1
// when no catalog is attached.
type HealthResponse struct {
	Status    string `json:"status"`
	Exercises int    `json:"exercises"`
}
