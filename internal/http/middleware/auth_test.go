package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campool/internal/infra"
)

const testSecret = "auth-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func authRouter() (http.Handler, *string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.GET("/whoami", Auth(infra.NewJWTVerifier(testSecret)), func(c *gin.Context) {
		seen = UserID(c)
		c.String(http.StatusOK, seen)
	})
	return r, &seen
}

func TestAuthAcceptsSignedToken(t *testing.T) {
	router, seen := authRouter()

	raw := signToken(t, testSecret, jwt.MapClaims{"user_id": "stu_42"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu_42", *seen)
}

func TestAuthFallsBackToSubject(t *testing.T) {
	router, seen := authRouter()

	raw := signToken(t, testSecret, jwt.MapClaims{"sub": "stu_sub"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu_sub", *seen)
}

func TestAuthRejects(t *testing.T) {
	router, _ := authRouter()

	wrongKey := signToken(t, "some-other-secret", jwt.MapClaims{"user_id": "stu_42"})
	anonymous := signToken(t, testSecret, jwt.MapClaims{"scope": "rides"})

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Token abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signing key", "Bearer " + wrongKey},
		{"no user claim", "Bearer " + anonymous},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
