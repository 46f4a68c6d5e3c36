package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

func TestContactRepository_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewContactRepository(mock)

	submission := domain.ContactSubmission{
		ID:         "submission-1",
		Name:       "Jordan Example",
		Email:      "jordan@example.com",
		Message:    "I enjoyed your latest post and have a follow-up question.",
		ClientAddr: "203.0.113.10",
		UserAgent:  "Mozilla/5.0",
		IsSpam:     false,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO contact_submissions`).
		WithArgs(
			submission.ID,
			submission.Name,
			submission.Email,
			submission.Message,
			submission.ClientAddr,
			submission.UserAgent,
			submission.IsSpam,
			submission.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), submission); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
