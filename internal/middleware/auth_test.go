package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candemir/movie-catalog-service/internal/token"
)

func newProtectedRouter(issuer *token.Issuer, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", Auth(issuer, zap.NewNop()))
	group.Use(extra...)
	group.GET("/whoami", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return router
}

func testIssuer() *token.Issuer {
	return token.NewIssuer("0123456789abcdef0123456789abcdef", "movie-catalog-service", "movie-catalog-api", 15*time.Minute)
}

func TestAuthAcceptsValidBearerToken(t *testing.T) {
	issuer := testIssuer()
	router := newProtectedRouter(issuer)

	signed, err := issuer.Issue(7, "bob@example.com", "member")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	router := newProtectedRouter(testIssuer())

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc123",
		"no token":     "Bearer",
		"garbage":      "Bearer not.a.jwt",
		"extra fields": "Bearer one two",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestRequireRoleGatesOnRoleClaim(t *testing.T) {
	issuer := testIssuer()
	router := newProtectedRouter(issuer, RequireRole("admin", zap.NewNop()))

	memberToken, err := issuer.Issue(7, "bob@example.com", "member")
	require.NoError(t, err)
	adminToken, err := issuer.Issue(8, "root@example.com", "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
