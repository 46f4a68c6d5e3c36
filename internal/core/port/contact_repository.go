package port

import (
	"context"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

// ContactRepository persists validated contact submissions.
type ContactRepository interface {
	Insert(ctx context.Context, submission domain.ContactSubmission) error
}
