package dto

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// ErrorPage is rendered for 403, 404 and 500 responses
type ErrorPage struct {
	Status  int
	Message string
}
