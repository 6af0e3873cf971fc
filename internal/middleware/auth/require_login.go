package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// RequireLogin resolves the authenticated identity of the caller from a
// Bearer Authorization header or the accessToken cookie and stores the user
// id in the echo context. Handlers behind it read the id with UserID.
func RequireLogin(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
			}

			setUserContext(c, uint(sub), claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func setUserContext(c echo.Context, userID uint, claims jwt.MapClaims) {
	c.Set("userID", userID)
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
}

// UserID reports the identity stored by RequireLogin.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, errors.New("no authenticated user in context")
	}
	return id, nil
}
