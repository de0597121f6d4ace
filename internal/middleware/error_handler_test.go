package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantBody   string
		wantHTML   bool
		notInBody  string
	}{
		{
			name:       "api http error",
			path:       "/api/payment/initiate",
			err:        echo.NewHTTPError(http.StatusBadRequest, "Amount, customer name, and phone are required."),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"Amount, customer name, and phone are required."}`,
		},
		{
			name:       "api internal error hides details",
			path:       "/api/admin/summary",
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"message":"Something went wrong. Please try again later."}`,
			notInBody:  "pq:",
		},
		{
			name:       "html not found",
			path:       "/nowhere",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantHTML:   true,
			wantBody:   "Page Not Found",
		},
		{
			name:       "redirect page renders html",
			path:       "/api/payment/redirect/ORDER_1",
			err:        echo.NewHTTPError(http.StatusInternalServerError, "Could not render payment form"),
			wantStatus: http.StatusInternalServerError,
			wantHTML:   true,
			wantBody:   "Could not render payment form",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewErrorHandler("/api")(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantHTML {
				assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			} else {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.notInBody != "" {
				assert.NotContains(t, rec.Body.String(), tt.notInBody)
			}
		})
	}
}
