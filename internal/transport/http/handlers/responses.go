package handlers

// ErrorResponse is the generic error payload for handler failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
