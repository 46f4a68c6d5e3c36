package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
	"github.com/sepehr-mohseni/site-engagement/internal/repository"
)

// EngagementRepository implements port.EngagementRepository using PostgreSQL.
//
// The like toggle and share mutations run inside a transaction so the
// membership/log row and the aggregate counter move together; counters are
// adjusted with relative deltas in SQL, never with values read beforehand.
type EngagementRepository struct {
	db      pgBeginner
	builder squirrel.StatementBuilderType
	now     func() time.Time
	newID   func() string
}

// NewEngagementRepository wires a PostgreSQL-backed engagement store.
func NewEngagementRepository(db pgBeginner) *EngagementRepository {
	return &EngagementRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// GetBySlug fetches the aggregate row for a post.
func (r *EngagementRepository) GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	stmt, args, err := r.builder.
		Select("id", "slug", "likes", "shares", "views", "created_at").
		From("blog_posts").
		Where(squirrel.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select post sql: %w", err)
	}

	var post domain.BlogPost
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(
		&post.ID,
		&post.Slug,
		&post.Likes,
		&post.Shares,
		&post.Views,
		&post.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	return &post, nil
}

// HasLiked reports whether the fingerprint currently likes the post.
func (r *EngagementRepository) HasLiked(ctx context.Context, slug string, fingerprint domain.Fingerprint) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("post_likes").
		Join("blog_posts ON blog_posts.id = post_likes.post_id").
		Where(squirrel.Eq{"blog_posts.slug": slug, "post_likes.fingerprint": fingerprint.String()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build has liked sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("query post likes: %w", err)
	}
	defer rows.Close()

	liked := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("scan post likes: %w", err)
	}

	return liked, nil
}

// ToggleLike flips the like membership for the fingerprint and moves the
// aggregate counter the opposite way in the same transaction. The unique
// constraint on (post_id, fingerprint) keeps a racing double-toggle from the
// same visitor from ever producing duplicate membership rows.
func (r *EngagementRepository) ToggleLike(ctx context.Context, slug string, fingerprint domain.Fingerprint) (domain.LikeResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.LikeResult{}, fmt.Errorf("begin toggle like: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	postID, err := r.ensurePost(ctx, tx, slug)
	if err != nil {
		return domain.LikeResult{}, err
	}

	deleteStmt, deleteArgs, err := r.builder.
		Delete("post_likes").
		Where(squirrel.Eq{"post_id": postID, "fingerprint": fingerprint.String()}).
		ToSql()
	if err != nil {
		return domain.LikeResult{}, fmt.Errorf("build delete like sql: %w", err)
	}

	tag, err := tx.Exec(ctx, deleteStmt, deleteArgs...)
	if err != nil {
		return domain.LikeResult{}, fmt.Errorf("delete like: %w", err)
	}

	result := domain.LikeResult{}
	if tag.RowsAffected() > 0 {
		// Unlike: membership removed, counter comes down with it.
		likes, err := r.adjustLikes(ctx, tx, postID, "GREATEST(likes - 1, 0)")
		if err != nil {
			return domain.LikeResult{}, err
		}
		result.Liked = false
		result.Likes = likes
	} else {
		insertStmt, insertArgs, err := r.builder.
			Insert("post_likes").
			Columns("id", "post_id", "fingerprint", "created_at").
			Values(r.newID(), postID, fingerprint.String(), r.now()).
			Suffix("ON CONFLICT (post_id, fingerprint) DO NOTHING").
			ToSql()
		if err != nil {
			return domain.LikeResult{}, fmt.Errorf("build insert like sql: %w", err)
		}

		insertTag, err := tx.Exec(ctx, insertStmt, insertArgs...)
		if err != nil {
			return domain.LikeResult{}, fmt.Errorf("insert like: %w", err)
		}

		if insertTag.RowsAffected() > 0 {
			likes, err := r.adjustLikes(ctx, tx, postID, "likes + 1")
			if err != nil {
				return domain.LikeResult{}, err
			}
			result.Likes = likes
		} else {
			// Lost a race against an identical like; the counter already
			// reflects the winning insert.
			likes, err := r.currentLikes(ctx, tx, postID)
			if err != nil {
				return domain.LikeResult{}, err
			}
			result.Likes = likes
		}
		result.Liked = true
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.LikeResult{}, fmt.Errorf("commit toggle like: %w", err)
	}

	return result, nil
}

// AddShare appends a share event and bumps the aggregate counter atomically.
func (r *EngagementRepository) AddShare(ctx context.Context, slug string, platform domain.SharePlatform, fingerprint *domain.Fingerprint) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin add share: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	postID, err := r.ensurePost(ctx, tx, slug)
	if err != nil {
		return 0, err
	}

	var fpValue any
	if fingerprint != nil {
		fpValue = fingerprint.String()
	}

	insertStmt, insertArgs, err := r.builder.
		Insert("post_shares").
		Columns("id", "post_id", "platform", "fingerprint", "created_at").
		Values(r.newID(), postID, string(platform), fpValue, r.now()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert share sql: %w", err)
	}

	if _, err := tx.Exec(ctx, insertStmt, insertArgs...); err != nil {
		return 0, fmt.Errorf("insert share: %w", err)
	}

	updateStmt, updateArgs, err := r.builder.
		Update("blog_posts").
		Set("shares", squirrel.Expr("shares + 1")).
		Where(squirrel.Eq{"id": postID}).
		Suffix("RETURNING shares").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update shares sql: %w", err)
	}

	var shares int
	if err := tx.QueryRow(ctx, updateStmt, updateArgs...).Scan(&shares); err != nil {
		return 0, fmt.Errorf("update shares: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit add share: %w", err)
	}

	return shares, nil
}

// IncrementViews lazily creates the aggregate and bumps its view counter in a
// single upsert.
func (r *EngagementRepository) IncrementViews(ctx context.Context, slug string) error {
	stmt, args, err := r.builder.
		Insert("blog_posts").
		Columns("id", "slug", "views", "created_at").
		Values(r.newID(), slug, 1, r.now()).
		Suffix("ON CONFLICT (slug) DO UPDATE SET views = blog_posts.views + 1").
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment views sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	return nil
}

func (r *EngagementRepository) ensurePost(ctx context.Context, tx pgx.Tx, slug string) (string, error) {
	stmt, args, err := r.builder.
		Insert("blog_posts").
		Columns("id", "slug", "created_at").
		Values(r.newID(), slug, r.now()).
		Suffix("ON CONFLICT (slug) DO UPDATE SET slug = excluded.slug RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build ensure post sql: %w", err)
	}

	var id string
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("ensure post: %w", err)
	}

	return id, nil
}

func (r *EngagementRepository) adjustLikes(ctx context.Context, tx pgx.Tx, postID, delta string) (int, error) {
	stmt, args, err := r.builder.
		Update("blog_posts").
		Set("likes", squirrel.Expr(delta)).
		Where(squirrel.Eq{"id": postID}).
		Suffix("RETURNING likes").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build adjust likes sql: %w", err)
	}

	var likes int
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&likes); err != nil {
		return 0, fmt.Errorf("adjust likes: %w", err)
	}

	return likes, nil
}

func (r *EngagementRepository) currentLikes(ctx context.Context, tx pgx.Tx, postID string) (int, error) {
	stmt, args, err := r.builder.
		Select("likes").
		From("blog_posts").
		Where(squirrel.Eq{"id": postID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select likes sql: %w", err)
	}

	var likes int
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&likes); err != nil {
		return 0, fmt.Errorf("scan likes: %w", err)
	}

	return likes, nil
}

var _ port.EngagementRepository = (*EngagementRepository)(nil)
