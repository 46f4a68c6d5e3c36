package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups the concrete PostgreSQL repository implementations.
type Repositories struct {
	RateLimits *RateLimitRepository
	PageViews  *PageViewRepository
	Engagement *EngagementRepository
	Contacts   *ContactRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		RateLimits: NewRateLimitRepository(pool),
		PageViews:  NewPageViewRepository(pool),
		Engagement: NewEngagementRepository(pool),
		Contacts:   NewContactRepository(pool),
	}
}
