package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

// ContactRepository implements port.ContactRepository using PostgreSQL.
type ContactRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewContactRepository wires a PostgreSQL-backed contact store.
func NewContactRepository(exec pgExecutor) *ContactRepository {
	return &ContactRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert stores a validated submission, spam-flagged or not.
func (r *ContactRepository) Insert(ctx context.Context, submission domain.ContactSubmission) error {
	stmt, args, err := r.builder.
		Insert("contact_submissions").
		Columns("id", "name", "email", "message", "client_addr", "user_agent", "is_spam", "created_at").
		Values(
			submission.ID,
			submission.Name,
			submission.Email,
			submission.Message,
			submission.ClientAddr,
			submission.UserAgent,
			submission.IsSpam,
			submission.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert submission sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	return nil
}

var _ port.ContactRepository = (*ContactRepository)(nil)
