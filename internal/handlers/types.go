package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Response is the JSON envelope shared by the API endpoints
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// orderIDsRequest is the body of the bulk settlement endpoints
type orderIDsRequest struct {
	OrderIDs []string `json:"orderIds"`
}

// render writes a templ component as an HTML response with the given status
func render(c echo.Context, code int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	c.Response().WriteHeader(code)
	return component.Render(c.Request().Context(), c.Response())
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}
