package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       "unit-test-secret",
		TokenExpiration: 15 * time.Minute,
		Issuer:          "dealerflow",
		Audience:        "dealerflow-api",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.NewString()

	t.Run("Roundtrip", func(t *testing.T) {
		token, err := GenerateToken(cfg, userID, "owner@smithmotors.example", "Smith Motors", "owner")
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := ParseToken(cfg, token)
		assert.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, userID, claims.Subject)
		assert.Equal(t, "owner@smithmotors.example", claims.Email)
		assert.Equal(t, "Smith Motors", claims.DealershipName)
		assert.Equal(t, "owner", claims.Role)
		assert.Equal(t, "dealerflow", claims.Issuer)
		assert.Contains(t, claims.Audience, "dealerflow-api")
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := GenerateToken(cfg, userID, "", "", "")
		assert.NoError(t, err)

		badCfg := cfg
		badCfg.SecretKey = "another-secret"
		_, err = ParseToken(badCfg, token)
		assert.Error(t, err)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		token, err := GenerateToken(cfg, userID, "", "", "")
		assert.NoError(t, err)

		badCfg := cfg
		badCfg.Issuer = "someone-else"
		_, err = ParseToken(badCfg, token)
		assert.Error(t, err)
	})

	t.Run("WrongAudience", func(t *testing.T) {
		token, err := GenerateToken(cfg, userID, "", "", "")
		assert.NoError(t, err)

		badCfg := cfg
		badCfg.Audience = "mobile-app"
		_, err = ParseToken(badCfg, token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expiredCfg := cfg
		expiredCfg.TokenExpiration = -time.Minute
		token, err := GenerateToken(expiredCfg, userID, "", "", "")
		assert.NoError(t, err)

		_, err = ParseToken(cfg, token)
		assert.Error(t, err)
	})

	t.Run("UnsignedTokenRejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: userID})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		assert.NoError(t, err)

		_, err = ParseToken(cfg, token)
		assert.Error(t, err)
	})
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testJWTConfig()
	userID := uuid.NewString()

	newRouter := func(mwCfg JWTConfig) *gin.Engine {
		r := gin.New()
		r.Use(JWTAuthMiddleware(mwCfg))
		r.GET("/whoami", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": GetUserIDFromContext(c)})
		})
		return r
	}

	t.Run("MissingHeaderBlocked", func(t *testing.T) {
		r := newRouter(cfg)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("BearerTokenAccepted", func(t *testing.T) {
		token, err := GenerateToken(cfg, userID, "owner@smithmotors.example", "Smith Motors", "owner")
		assert.NoError(t, err)

		r := newRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID)
	})

	t.Run("QueryParameterAccepted", func(t *testing.T) {
		token, err := GenerateToken(cfg, userID, "", "", "")
		assert.NoError(t, err)

		r := newRouter(cfg)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami?token="+token, nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MalformedHeaderBlocked", func(t *testing.T) {
		r := newRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Token abc123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("OptionalModePassesAnonymous", func(t *testing.T) {
		optionalCfg := cfg
		optionalCfg.Optional = true

		r := newRouter(optionalCfg)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "anonymous")
	})

	t.Run("RequireAuthBlocksAnonymous", func(t *testing.T) {
		optionalCfg := cfg
		optionalCfg.Optional = true

		r := gin.New()
		r.Use(JWTAuthMiddleware(optionalCfg))
		r.Use(RequireAuthMiddleware())
		r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDealershipID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ParsesAuthenticatedUser", func(t *testing.T) {
		id := uuid.New()
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", id.String())

		got, err := DealershipID(c)
		assert.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("AnonymousIsUnauthenticated", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", "anonymous")

		_, err := DealershipID(c)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("MissingUserIsUnauthenticated", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		_, err := DealershipID(c)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("MalformedIDIsUnauthenticated", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", "not-a-uuid")

		_, err := DealershipID(c)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}
