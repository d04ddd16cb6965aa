package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo persists dealership accounts and their refresh tokens.
type AuthRepo interface {
	// CreateUser inserts a new account. Expects a HASHED password.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail fetches the account needed for credential validation.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// VerifyPassword compares a plain password against the stored hash.
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)

	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, email, password_hash, dealership_name, first_name, last_name,
	phone, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DealershipName, &u.FirstName, &u.LastName,
		&u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser implements auth.AuthRepo.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	tracer := otel.Tracer("DealerFlowAPI")

	ctx, span := tracer.Start(ctx, "PostgresAuthRepo.CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.statement", "INSERT INTO users ..."),
	))
	defer span.End()

	query := `INSERT INTO users (email, password_hash, dealership_name, first_name, last_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	created, err := scanUser(r.pgpool.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.DealershipName,
		user.FirstName, user.LastName, user.Phone, user.Role,
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("email %s already registered: %w", user.Email, models.ErrConflict)
		}
		r.logger.ErrorContext(ctx, "Error inserting user", slog.Any("error", err), slog.String("email", user.Email))
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	r.logger.InfoContext(ctx, "User created", slog.String("userID", created.ID.String()))
	return created, nil
}

// GetUserByEmail implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = TRUE`

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching user by email", slog.Any("error", err), slog.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

// GetUserByID implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching user by ID", slog.Any("error", err), slog.String("userID", userID.String()))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return user, nil
}

// VerifyPassword implements auth.AuthRepo. Compares plain password to stored hash.
func (r *PostgresAuthRepo) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	var storedHash string
	query := `SELECT password_hash FROM users WHERE id = $1 AND is_active = TRUE`
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(&storedHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching password hash", slog.Any("error", err), slog.String("userID", userID.String()))
		return fmt.Errorf("database error verifying password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
		return fmt.Errorf("password mismatch: %w", models.ErrUnauthenticated)
	}
	return nil
}

// UpdatePassword implements auth.AuthRepo. Expects HASHED password.
func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pgpool.Exec(ctx, query, userID, newHashedPassword)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating password", slog.Any("error", err), slog.String("userID", userID.String()))
		return fmt.Errorf("database error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
	}
	return nil
}

// UpdateProfile implements auth.AuthRepo. Nil fields keep their current value.
func (r *PostgresAuthRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	query := `UPDATE users SET
		dealership_name = COALESCE($2, dealership_name),
		first_name = COALESCE($3, first_name),
		last_name = COALESCE($4, last_name),
		phone = COALESCE($5, phone),
		updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pgpool.QueryRow(ctx, query,
		userID, req.DealershipName, req.FirstName, req.LastName, req.Phone,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating profile", slog.Any("error", err), slog.String("userID", userID.String()))
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`

	if _, err := r.pgpool.Exec(ctx, query, userID, token, expiresAt); err != nil {
		r.logger.ErrorContext(ctx, "Error storing refresh token", slog.Any("error", err), slog.String("userID", userID.String()))
		return fmt.Errorf("database error storing refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	query := `SELECT user_id FROM refresh_tokens WHERE token = $1 AND expires_at > now()`

	var userID uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, refreshToken).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("refresh token invalid or expired: %w", models.ErrUnauthenticated)
		}
		r.logger.ErrorContext(ctx, "Error validating refresh token", slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("database error validating refresh token: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`

	if _, err := r.pgpool.Exec(ctx, query, refreshToken); err != nil {
		r.logger.ErrorContext(ctx, "Error invalidating refresh token", slog.Any("error", err))
		return fmt.Errorf("database error invalidating refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	if _, err := r.pgpool.Exec(ctx, query, userID); err != nil {
		r.logger.ErrorContext(ctx, "Error invalidating user refresh tokens", slog.Any("error", err), slog.String("userID", userID.String()))
		return fmt.Errorf("database error invalidating refresh tokens: %w", err)
	}
	return nil
}
