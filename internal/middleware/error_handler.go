package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront_pay/web/templates/pages"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewErrorHandler answers API routes with a JSON envelope and everything else with
// the HTML error page
func NewErrorHandler(apiPrefix string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		errorTitle := "Internal Server Error"
		errorMessage := ""

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				errorMessage = msg
			}
		}

		switch code {
		case http.StatusNotFound:
			errorTitle = "Page Not Found"
			if errorMessage == "" {
				errorMessage = "The page you're looking for doesn't exist."
			}
		case http.StatusUnauthorized:
			errorTitle = "Unauthorized"
			if errorMessage == "" {
				errorMessage = "Please log in to continue."
			}
		case http.StatusBadRequest:
			errorTitle = "Bad Request"
			if errorMessage == "" {
				errorMessage = "The request could not be processed."
			}
		case http.StatusTooManyRequests:
			errorTitle = "Too Many Requests"
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			errorTitle = "Service Unavailable"
		}
		if code >= http.StatusInternalServerError && he == nil {
			errorMessage = ""
		}
		if errorMessage == "" {
			errorMessage = "Something went wrong. Please try again later."
		}

		if code >= http.StatusInternalServerError {
			c.Logger().Error(err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}

		if isAPIRequest(c, apiPrefix) {
			if jerr := c.JSON(code, errorResponse{Success: false, Message: errorMessage}); jerr != nil {
				c.Logger().Error(jerr)
			}
			return
		}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(code)
		props := pages.ErrorPageProps{
			ErrorTitle:   errorTitle,
			ErrorMessage: errorMessage,
			BackLink:     "/",
			BackText:     "Back to store",
		}
		if rerr := pages.ErrorPage(props).Render(c.Request().Context(), c.Response()); rerr != nil {
			c.Logger().Error(fmt.Errorf("failed to render error page: %w", rerr))
		}
	}
}

// isAPIRequest treats the redirect page as HTML even though it lives under the API prefix
func isAPIRequest(c echo.Context, apiPrefix string) bool {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, apiPrefix+"/payment/redirect/") {
		return false
	}
	if apiPrefix != "" && strings.HasPrefix(path, apiPrefix+"/") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
