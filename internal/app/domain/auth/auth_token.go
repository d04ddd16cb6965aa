package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
)

// AuthTokenHandler handles JWT token generation for testing/development
type AuthTokenHandler struct {
	logger    *slog.Logger
	jwtConfig middleware.JWTConfig
}

// NewAuthTokenHandler creates a new auth token handler
func NewAuthTokenHandler(logger *slog.Logger, jwtConfig middleware.JWTConfig) *AuthTokenHandler {
	return &AuthTokenHandler{
		logger:    logger,
		jwtConfig: jwtConfig,
	}
}

// GenerateTokenRequest represents the request body for token generation
type GenerateTokenRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	Email          string `json:"email"`
	DealershipName string `json:"dealership_name"`
}

// GenerateTokenResponse represents the token response
type GenerateTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn string `json:"expires_in"`
	UserID    string `json:"user_id"`
}

// GenerateToken generates a JWT token for a user
func (h *AuthTokenHandler) GenerateToken(c *gin.Context) {
	var req GenerateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid token request", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. user_id is required",
		})
		return
	}

	token, err := middleware.GenerateToken(
		h.jwtConfig,
		req.UserID,
		req.Email,
		req.DealershipName,
		"owner",
	)
	if err != nil {
		h.logger.Error("Failed to generate token",
			slog.String("user_id", req.UserID),
			slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	h.logger.Info("Token generated",
		slog.String("user_id", req.UserID),
		slog.String("email", req.Email))

	c.JSON(http.StatusOK, GenerateTokenResponse{
		Token:     token,
		ExpiresIn: h.jwtConfig.TokenExpiration.String(),
		UserID:    req.UserID,
	})
}

// VerifyToken verifies a JWT token and returns user info
func (h *AuthTokenHandler) VerifyToken(c *gin.Context) {
	// User info is already set by JWT middleware
	userID, _ := c.Get("user_id")
	email, _ := c.Get("user_email")
	dealershipName, _ := c.Get("dealership_name")
	authenticated, _ := c.Get("authenticated")

	isAuth, ok := authenticated.(bool)
	if !ok || !isAuth {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":         userID,
		"email":           email,
		"dealership_name": dealershipName,
		"authenticated":   true,
	})
}

// GetTokenExample returns an example of how to use the token API
func (h *AuthTokenHandler) GetTokenExample(c *gin.Context) {
	example := map[string]interface{}{
		"description": "Generate and use JWT tokens against the DealerFlow API",
		"endpoints": map[string]interface{}{
			"generate_token": map[string]interface{}{
				"method":      "POST",
				"path":        "/api/v1/auth/token",
				"description": "Generate a JWT token for a user",
				"request": map[string]interface{}{
					"user_id":         "7b5a2a6e-54d7-4f3c-9a53-70a0b54fd6a1",
					"email":           "owner@smithmotors.example",
					"dealership_name": "Smith Motors",
				},
				"response": map[string]interface{}{
					"token":      "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...",
					"expires_in": "24h0m0s",
					"user_id":    "7b5a2a6e-54d7-4f3c-9a53-70a0b54fd6a1",
				},
			},
			"verify_token": map[string]interface{}{
				"method":      "GET",
				"path":        "/api/v1/auth/verify",
				"description": "Verify a JWT token",
				"headers": map[string]string{
					"Authorization": "Bearer <your-token>",
				},
				"response": map[string]interface{}{
					"user_id":         "7b5a2a6e-54d7-4f3c-9a53-70a0b54fd6a1",
					"email":           "owner@smithmotors.example",
					"dealership_name": "Smith Motors",
					"authenticated":   true,
				},
			},
		},
		"curl_examples": map[string]interface{}{
			"generate_token": `curl -X POST http://localhost:8091/api/v1/auth/token \
  -H "Content-Type: application/json" \
  -d '{"user_id": "7b5a2a6e-54d7-4f3c-9a53-70a0b54fd6a1", "email": "owner@smithmotors.example", "dealership_name": "Smith Motors"}'`,
			"verify_token": `curl -X GET http://localhost:8091/api/v1/auth/verify \
  -H "Authorization: Bearer <your-token>"`,
		},
	}

	c.JSON(http.StatusOK, example)
}
