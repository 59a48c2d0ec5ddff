package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/session"
)

// SessionKey is the echo context key holding the session.Context.
const SessionKey = "session"

// JWTAuthMiddleware checks for a valid JWT and stores a request-scoped
// session.Context on the echo context. The CSRFValidated flag is set when
// the X-CSRF-Token header matches the token baked into the JWT claims.
func JWTAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}
			tokenString := parts[1]

			jwtSecret := os.Getenv("JWT_SECRET")
			if jwtSecret == "" {
				jwtSecret = "supersecretjwtkey" // Must match the secret used for signing
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				if err == jwt.ErrSignatureInvalid {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			if !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			csrfHeader := c.Request().Header.Get("X-CSRF-Token")
			csrfOK := claims.CSRFToken != "" &&
				subtle.ConstantTimeCompare([]byte(csrfHeader), []byte(claims.CSRFToken)) == 1

			c.Set(SessionKey, session.Context{
				UserID:        claims.UserID,
				Email:         claims.Email,
				CSRFValidated: csrfOK,
			})

			return next(c)
		}
	}
}

// RequireCSRF rejects state-changing requests whose session did not present
// a valid anti-forgery token.
func RequireCSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			sess, ok := c.Get(SessionKey).(session.Context)
			if !ok || !sess.CSRFValidated {
				return echo.NewHTTPError(http.StatusForbidden, "Missing or invalid CSRF token")
			}
			return next(c)
		}
	}
}
