package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"storefront_pay/internal/middleware"
)

// SessionIssuer exchanges a Firebase ID token for a session cookie
type SessionIssuer interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// AuthHandler handles admin login and logout
type AuthHandler struct {
	issuer       SessionIssuer
	secureCookie bool
}

func NewAuthHandler(issuer SessionIssuer, secureCookie bool) *AuthHandler {
	return &AuthHandler{issuer: issuer, secureCookie: secureCookie}
}

type loginRequest struct {
	IDToken string `json:"idToken"`
}

// HandleLogin verifies the Firebase ID token and sets a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.issuer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Admin authentication is not configured")
	}

	idToken := ""
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		idToken = strings.TrimPrefix(header, "Bearer ")
		if idToken == header {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}
	} else {
		var req loginRequest
		if err := c.Bind(&req); err == nil {
			idToken = req.IDToken
		}
	}
	if idToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing ID token")
	}

	ctx := c.Request().Context()
	if _, err := h.issuer.VerifyIDToken(ctx, idToken); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	expiresIn := time.Hour * 24 * 5
	cookieValue, err := h.issuer.SessionCookie(ctx, idToken, expiresIn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    cookieValue,
		MaxAge:   int(expiresIn.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Logged in"})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	c.SetCookie(middleware.ClearSessionCookie())
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Logged out"})
}
