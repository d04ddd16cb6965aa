package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

var _ PostRepo = (*PostgresPostRepo)(nil)

// PostRepo persists generated social posts.
type PostRepo interface {
	CreatePosts(ctx context.Context, posts []models.GeneratedPost) ([]models.GeneratedPost, error)
	List(ctx context.Context, dealershipID uuid.UUID, filter *models.PostFilter) ([]models.GeneratedPost, error)
	UpdateStatus(ctx context.Context, dealershipID, postID uuid.UUID, status models.PostStatus) (*models.GeneratedPost, error)
}

type PostgresPostRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresPostRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresPostRepo {
	return &PostgresPostRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const postColumns = `id, dealership_id, vehicle_id, platform, content, status, created_at, updated_at`

func scanPost(row pgx.Row) (*models.GeneratedPost, error) {
	var p models.GeneratedPost
	err := row.Scan(
		&p.ID, &p.DealershipID, &p.VehicleID, &p.Platform, &p.Content, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePosts inserts a generation batch in one statement.
func (r *PostgresPostRepo) CreatePosts(ctx context.Context, posts []models.GeneratedPost) ([]models.GeneratedPost, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	builder := sq.Insert("generated_posts").
		Columns("dealership_id", "vehicle_id", "platform", "content", "status").
		Suffix("RETURNING " + postColumns).
		PlaceholderFormat(sq.Dollar)
	for _, p := range posts {
		builder = builder.Values(p.DealershipID, p.VehicleID, p.Platform, p.Content, p.Status)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building post insert: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting posts", slog.Any("error", err), slog.String("dealership_id", posts[0].DealershipID.String()))
		return nil, fmt.Errorf("database error inserting posts: %w", err)
	}
	defer rows.Close()

	var saved []models.GeneratedPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning post: %w", err)
		}
		saved = append(saved, *p)
	}
	return saved, rows.Err()
}

func (r *PostgresPostRepo) List(ctx context.Context, dealershipID uuid.UUID, filter *models.PostFilter) ([]models.GeneratedPost, error) {
	builder := sq.Select(postColumns).
		From("generated_posts").
		Where(sq.Eq{"dealership_id": dealershipID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	limit := 50
	offset := 0
	if filter != nil {
		if filter.Platform != "" {
			builder = builder.Where(sq.Eq{"platform": filter.Platform})
		}
		if filter.Status != "" {
			builder = builder.Where(sq.Eq{"status": filter.Status})
		}
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if limit > 200 {
			limit = 200
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}
	builder = builder.Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building post list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing posts", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error listing posts: %w", err)
	}
	defer rows.Close()

	var posts []models.GeneratedPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *PostgresPostRepo) UpdateStatus(ctx context.Context, dealershipID, postID uuid.UUID, status models.PostStatus) (*models.GeneratedPost, error) {
	query := `UPDATE generated_posts SET status = $3, updated_at = now()
		WHERE id = $1 AND dealership_id = $2
		RETURNING ` + postColumns

	p, err := scanPost(r.pgpool.QueryRow(ctx, query, postID, dealershipID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post %s not found: %w", postID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating post status", slog.Any("error", err), slog.String("post_id", postID.String()))
		return nil, fmt.Errorf("database error updating post status: %w", err)
	}
	return p, nil
}
