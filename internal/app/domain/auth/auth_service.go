package auth

import (
	"context"
	"fmt"
	"net/mail"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// SubscriptionProvisioner creates the trial subscription a fresh dealership
// account starts on.
type SubscriptionProvisioner interface {
	CreateTrial(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)
}

// AuthService defines the business logic contract.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger        *zap.Logger
	repo          AuthRepo
	subscriptions SubscriptionProvisioner
	cfg           *config.Config
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, subscriptions SubscriptionProvisioner, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, subscriptions: subscriptions, cfg: cfg}
}

// Register creates the dealership account, provisions its trial subscription
// and signs the caller in.
func (s *AuthServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", req.Email))
	l.Debug("Attempting registration")

	tracer := otel.Tracer("DealerFlowAPI")
	ctx, span := tracer.Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("email", req.Email),
		attribute.String("dealership", req.DealershipName),
	))
	defer span.End()

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email address: %w", models.ErrValidation)
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.DealershipName == "" {
		return nil, fmt.Errorf("dealership name is required: %w", models.ErrValidation)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, fmt.Errorf("could not process password")
	}

	user, err := s.repo.CreateUser(ctx, &models.User{
		Email:          req.Email,
		PasswordHash:   string(hashedPasswordBytes),
		DealershipName: req.DealershipName,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Role:           "owner",
		IsActive:       true,
	})
	if err != nil {
		l.Error("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	// Every new dealership starts on the trial plan.
	if _, err := s.subscriptions.CreateTrial(ctx, user.ID); err != nil {
		l.Error("Failed to provision trial subscription", zap.String("userID", user.ID.String()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trial provisioning failed")
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("Failed to issue session after registration", zap.String("userID", user.ID.String()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session issuance failed")
		return nil, err
	}

	l.Info("Registration successful", zap.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return resp, nil
}

// Login validates credentials, generates tokens, stores refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed", zap.String("email", email))
		// Don't reveal if user exists or password is wrong
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("Failed to issue session", zap.String("userID", user.ID.String()), zap.Error(err))
		return nil, err
	}

	l.Info("Login successful")
	return resp, nil
}

// RefreshSession validates refresh token, generates new tokens, rotates refresh token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid or expired refresh token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID.String()), zap.Error(err))
		if invErr := s.repo.InvalidateRefreshToken(ctx, refreshToken); invErr != nil {
			l.Warn("Failed to invalidate orphaned refresh token", zap.Error(invErr))
		}
		return nil, fmt.Errorf("invalid or expired refresh token: %w", models.ErrUnauthenticated)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("Failed to issue new session", zap.String("userID", user.ID.String()), zap.Error(err))
		return nil, err
	}

	// Invalidate the old refresh token (rotation).
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.String("userID", user.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.String("userID", user.ID.String()))
	return resp, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	l.Debug("Attempting logout by invalidating refresh token")

	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to invalidate refresh token", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}

	l.Info("Logout successful")
	return nil
}

// ChangePassword verifies the old password, stores the new hash and revokes
// every active session.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	l := s.logger.With(zap.String("method", "ChangePassword"), zap.String("userID", userID.String()))
	l.Debug("Attempting password update")

	if err := s.repo.VerifyPassword(ctx, userID, oldPassword); err != nil {
		l.Warn("Old password verification failed", zap.Error(err))
		return fmt.Errorf("incorrect old password: %w", models.ErrUnauthenticated)
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	newHashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("could not process new password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(newHashedPasswordBytes)); err != nil {
		l.Error("Repository password update failed", zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Force re-login everywhere once the password changes.
	if err := s.repo.InvalidateAllUserRefreshTokens(ctx, userID); err != nil {
		l.Warn("Failed to invalidate refresh tokens after password update", zap.Error(err))
		return fmt.Errorf("failed to invalidate tokens: %w", err)
	}

	l.Info("Password updated successfully")
	return nil
}

// GetProfile returns the account backing the authenticated session.
func (s *AuthServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	l := s.logger.With(zap.String("method", "GetProfile"), zap.String("userID", userID.String()))
	l.Debug("Fetching user by ID")

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to fetch user by ID", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the editable account fields and returns the updated row.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	l := s.logger.With(zap.String("method", "UpdateProfile"), zap.String("userID", userID.String()))
	l.Debug("Updating profile")

	if req.DealershipName != nil && *req.DealershipName == "" {
		return nil, fmt.Errorf("dealership name cannot be empty: %w", models.ErrValidation)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, req)
	if err != nil {
		l.Error("Repository profile update failed", zap.Error(err))
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	l.Info("Profile updated")
	return user, nil
}

// issueSession mints an access token, stores a fresh refresh token and bundles
// both with the user for the response body.
func (s *AuthServiceImpl) issueSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessTTL := s.getAccessTTL()
	accessToken, err := middleware.GenerateToken(middleware.JWTConfig{
		SecretKey:       s.getSecretKey(),
		TokenExpiration: accessTTL,
		Issuer:          s.getIssuer(),
		Audience:        s.getAudience(),
	}, user.ID.String(), user.Email, user.DealershipName, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	// Refresh token is an opaque value stored server side.
	refreshToken := uuid.NewString()
	refreshExpiresAt := time.Now().Add(s.getRefreshTTL())
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, refreshExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

// validatePassword enforces the minimum credential policy: at least eight
// characters with one letter and one digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", models.ErrValidation)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain a letter and a digit: %w", models.ErrValidation)
	}
	return nil
}

// --- Internal Helpers for Config with Defaults ---

func (s *AuthServiceImpl) getAccessTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.AccessTokenTTL > 0 {
		return s.cfg.JWT.AccessTokenTTL
	}
	s.logger.Warn("JWT AccessTokenTTL not configured, using default 15m")
	return 15 * time.Minute
}

func (s *AuthServiceImpl) getRefreshTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.RefreshTokenTTL > 0 {
		return s.cfg.JWT.RefreshTokenTTL
	}
	s.logger.Warn("JWT RefreshTokenTTL not configured, using default 7d")
	return 7 * 24 * time.Hour
}

func (s *AuthServiceImpl) getIssuer() string {
	if s.cfg != nil && s.cfg.JWT.Issuer != "" {
		return s.cfg.JWT.Issuer
	}
	return "dealerflow"
}

func (s *AuthServiceImpl) getAudience() string {
	if s.cfg != nil && s.cfg.JWT.Audience != "" {
		return s.cfg.JWT.Audience
	}
	return "dealerflow-api"
}

func (s *AuthServiceImpl) getSecretKey() string {
	if s.cfg != nil {
		return s.cfg.JWT.SecretKey
	}
	return ""
}
