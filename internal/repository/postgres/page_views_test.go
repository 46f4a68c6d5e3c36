package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

func TestPageViewRepository_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPageViewRepository(mock)

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	referrer := "https://example.com/"
	view := domain.PageView{
		ID:           "view-1",
		Fingerprint:  domain.NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080),
		Path:         "/blog/hello-world",
		WindowWidth:  1920,
		WindowHeight: 1080,
		Referrer:     &referrer,
		CreatedAt:    createdAt,
	}

	mock.ExpectExec(`INSERT INTO page_views`).
		WithArgs(view.ID, view.Fingerprint.String(), view.Path, view.WindowWidth, view.WindowHeight, view.Referrer, view.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), view); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPageViewRepository_SeenSince(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPageViewRepository(mock)

	fp := domain.NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)
	since := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT 1 FROM page_views`).
		WithArgs(fp.String(), "/blog/hello-world", since).
		WillReturnRows(pgxmock.NewRows([]string{"1"}).AddRow(1))

	seen, err := repo.SeenSince(context.Background(), fp, "/blog/hello-world", since)
	if err != nil {
		t.Fatalf("SeenSince returned error: %v", err)
	}
	if !seen {
		t.Fatalf("expected seen=true when a row exists")
	}

	mock.ExpectQuery(`SELECT 1 FROM page_views`).
		WithArgs(fp.String(), "/blog/hello-world", since).
		WillReturnRows(pgxmock.NewRows([]string{"1"}))

	seen, err = repo.SeenSince(context.Background(), fp, "/blog/hello-world", since)
	if err != nil {
		t.Fatalf("SeenSince returned error: %v", err)
	}
	if seen {
		t.Fatalf("expected seen=false when no row exists")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPageViewRepository_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPageViewRepository(mock)

	now := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"total", "unique", "last24h", "last7d"}).
		AddRow(int64(42), int64(17), int64(5), int64(20))

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT fingerprint\)`).
		WithArgs(now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), "/blog/hello-world").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "/blog/hello-world", now)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}

	want := domain.PageStats{TotalViews: 42, UniqueVisitors: 17, Last24h: 5, Last7d: 20}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
