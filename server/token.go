package server

import (
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/event"
)

const (
	// AuthorizationKey is the key for getting the HTTP header authorization
	AuthorizationKey = "authorization"

	// KeyUserID is used as an identifier
	KeyUserID = "UserID"
)

// CustomClaims is our custom metadata of the JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

// ValidateToken checks the bearer token of a request against the signing key
// of the active config. Without a key every request passes.
func (s *Server) ValidateToken(c *gin.Context) {

	key := s.config.Current().JwtSigningKey
	if key == "" {
		c.Next()
		return
	}

	tokenString := c.GetHeader(AuthorizationKey)
	if tokenString == "" {
		log.Error("Missing authentication token in header")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	split := strings.Split(tokenString, " ")
	if len(split) != 2 || strings.ToLower(split[0]) != "bearer" {
		log.Error("Missing bearer keyword in token")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	token, err := jwt.ParseWithClaims(split[1], &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		log.Error(err)
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	// Validate the token and return the custom claims
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		c.Set(KeyUserID, claims.UserID)
		t := time.Unix(claims.StandardClaims.ExpiresAt, 0)
		log.WithFields(event.Fields{
			"UserID": claims.UserID,
		}).Debugf("Token is valid. Expires in %v", time.Until(t))
	} else {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.Next()
}
