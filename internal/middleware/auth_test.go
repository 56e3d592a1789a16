package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recovery-api/internal/handler"
	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/pkg/auth"
)

func setupAuthRouter(tokens auth.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(NewAuthMiddleware(tokens).Authenticate())
	engine.GET("/whoami", func(c *gin.Context) {
		actor, ok := handler.CurrentActor(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("no actor"))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(actor))
	})
	return engine
}

func TestAuthenticateValidToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", 1)
	actorID := uuid.New()
	token, err := tokens.GenerateToken(actorID, string(model.RoleDoctor))
	require.NoError(t, err)

	engine := setupAuthRouter(tokens)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), actorID.String())
}

func TestAuthenticateMissingHeader(t *testing.T) {
	engine := setupAuthRouter(auth.NewTokenService("test-secret", 1))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	engine := setupAuthRouter(auth.NewTokenService("test-secret", 1))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	issuer := auth.NewTokenService("other-secret", 1)
	token, err := issuer.GenerateToken(uuid.New(), string(model.RoleAdmin))
	require.NoError(t, err)

	engine := setupAuthRouter(auth.NewTokenService("test-secret", 1))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
