package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the Firebase session
const SessionCookieName = "session"

// TokenVerifier is the part of the Firebase auth client the admin guard needs
type TokenVerifier interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// RequireAdmin guards the admin API with a Firebase session cookie or a bearer ID token.
// With disabled set every request passes, which is meant for local development only.
func RequireAdmin(verifier TokenVerifier, disabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if disabled {
				c.Set("userUID", "local-admin")
				return next(c)
			}
			if verifier == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Admin authentication is not configured")
			}

			ctx := c.Request().Context()
			var (
				token *auth.Token
				err   error
			)
			if cookie, cerr := c.Cookie(SessionCookieName); cerr == nil && cookie.Value != "" {
				token, err = verifier.VerifySessionCookie(ctx, cookie.Value)
				if err != nil {
					c.SetCookie(ClearSessionCookie())
				}
			} else if bearer := bearerToken(c.Request()); bearer != "" {
				token, err = verifier.VerifyIDToken(ctx, bearer)
			} else {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
			}

			c.Set("userUID", token.UID)
			if email, ok := token.Claims["email"].(string); ok {
				c.Set("userEmail", email)
			}
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return strings.TrimSpace(token)
}

// ClearSessionCookie expires the session cookie in the browser
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
}
