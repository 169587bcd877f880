package server

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}

// HealthResponse reports liveness of the background context.
type HealthResponse struct {
	Status       string `json:"status" example:"ok"`
	CacheEntries int    `json:"cache_entries" example:"12"`
}
