package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key string, expires time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		UserID:         "user-1",
		StandardClaims: jwt.StandardClaims{ExpiresAt: expires.Unix()},
	})
	s, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func TestValidateToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JwtSigningKey = "secret"
	r := NewServer(cfg).Router()
	body := gin.H{"frames": []float64{1, 0, 0, 0, 0, 0, 0}, "scale": 1}

	testCases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusForbidden},
		{"no bearer", sign(t, "secret", time.Now().Add(time.Hour)), http.StatusForbidden},
		{"wrong key", "Bearer " + sign(t, "other", time.Now().Add(time.Hour)), http.StatusForbidden},
		{"expired", "Bearer " + sign(t, "secret", time.Now().Add(-time.Hour)), http.StatusForbidden},
		{"valid", "Bearer " + sign(t, "secret", time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, "/v1/frames/rescale", body, AuthorizationKey, tc.header)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestHealthNeedsNoToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JwtSigningKey = "secret"
	r := NewServer(cfg).Router()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
