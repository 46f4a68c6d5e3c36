package domain

import "time"

// ContactForm is the raw inbound contact submission. Honeypot is a hidden
// field; humans never fill it.
type ContactForm struct {
	Name     string
	Email    string
	Message  string
	Honeypot string
}

// FieldError describes a single invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult reports every invalid field at once.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// ContactSubmission is the persisted, normalized form. Spam-flagged
// submissions are still stored; the flag only marks them for review.
type ContactSubmission struct {
	ID         string
	Name       string
	Email      string
	Message    string
	ClientAddr string
	UserAgent  string
	IsSpam     bool
	CreatedAt  time.Time
}
