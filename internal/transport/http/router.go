package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/mobileshop/internal/handlers"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/mobileshop/pkg/middleware/logging"
)

type Deps struct {
	Logger   *slog.Logger
	Renderer echo.Renderer
	Binder   session.Binder
	CSRF     csrf.Config

	Health   *handlers.HealthHandler
	Products *handlers.ProductHandler
	Carts    *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Payments *handlers.PaymentHandler
	Orders   *handlers.OrderHandler
	Auth     *handlers.AuthHandler
}

// New builds the storefront echo instance with middleware and routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = d.Renderer

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(d.Logger, session.CartCookie, session.AccessCookie),
		middleware.Secure(),
		csrf.Middleware(d.CSRF),
	)

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	page, action := d.Binder.Page, d.Binder.Action

	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)

	e.GET("/", page(d.Products.Home))
	e.GET("/shop", page(d.Products.Shop))
	e.GET("/product/:slug", page(d.Products.Product))
	e.POST("/product/:slug/cart", action(d.Carts.AddToCart))

	e.GET("/cart", page(d.Carts.Cart))
	e.POST("/cart/items/:id", action(d.Carts.UpdateItem))
	e.POST("/cart/items/:id/delete", action(d.Carts.DeleteItem))

	e.GET("/checkout", page(d.Checkout.Page))
	e.POST("/checkout", action(d.Checkout.Submit))

	pay := e.Group("/checkout/payment/:orderId")
	pay.GET("", page(d.Payments.Page))
	// The relay never writes cookies, so it only gets a Reader.
	pay.POST("/open", page(d.Payments.Open))
	pay.POST("/outcome", page(d.Payments.Outcome))
	pay.POST("/retry", page(d.Payments.Retry))

	e.GET("/order/:id", page(d.Orders.Order))
	e.GET("/order/:id/tracking", page(d.Orders.Tracking))
	e.GET("/shipping/estimate", d.Orders.ShippingEstimate)

	e.GET("/login", page(d.Auth.LoginPage))
	e.POST("/login", action(d.Auth.Login))
	e.GET("/register", page(d.Auth.RegisterPage))
	e.POST("/register", action(d.Auth.Register))
	e.POST("/logout", action(d.Auth.Logout))
	e.GET("/account", page(d.Auth.Account))
}
