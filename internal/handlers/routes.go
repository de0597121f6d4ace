package handlers

import (
	"github.com/labstack/echo/v4"
)

// Routes groups the handlers and guards mounted under the API prefix
type Routes struct {
	Health  *HealthHandler
	Payment *PaymentHandler
	Admin   *AdminHandler
	Auth    *AuthHandler

	AdminGuard echo.MiddlewareFunc
	// Limiter throttles the unauthenticated write endpoints; nil disables it
	Limiter echo.MiddlewareFunc
}

func (r Routes) Register(e *echo.Echo, prefix string) {
	api := e.Group(prefix)

	var limited []echo.MiddlewareFunc
	if r.Limiter != nil {
		limited = append(limited, r.Limiter)
	}

	if r.Health != nil {
		api.GET("/health", r.Health.Health)
	}

	payment := api.Group("/payment")
	payment.POST("/initiate", r.Payment.Initiate, limited...)
	payment.GET("/redirect/:orderId", r.Payment.Redirect)
	payment.POST("/callback", r.Payment.Callback, limited...)
	payment.GET("/status/:orderId", r.Payment.Status)

	if r.Auth != nil {
		api.POST("/auth/login", r.Auth.HandleLogin, limited...)
		api.POST("/auth/logout", r.Auth.HandleLogout)
	}

	admin := api.Group("/admin")
	if r.AdminGuard != nil {
		admin.Use(r.AdminGuard)
	}
	admin.GET("/summary", r.Admin.Summary)
	admin.GET("/transactions", r.Admin.ListTransactions)
	admin.GET("/transactions/:orderId", r.Admin.GetTransaction)
	admin.POST("/settlement/request", r.Admin.RequestSettlement)
	admin.POST("/settlement/mark-settled", r.Admin.MarkSettled)
	admin.POST("/refresh-status/:orderId", r.Admin.RefreshStatus)
}
