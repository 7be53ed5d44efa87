// Package webserver bootstraps the echo HTTP server for the storefront
// REST API: public routes, bearer-JWT protected routes and static
// serving of uploaded photos.
package webserver

import (
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/papeleria/internal/app"
)

const (
	ContextAppKey = "appctx"
	ContextDBKey  = "db"
)

var server *WebServer

type WebServer struct {
	root   *echo.Echo
	pub    *echo.Group
	sec    *echo.Group
	appctx app.AppContext
}

// Init builds the package-level server instance routes register on.
func Init(a app.AppContext) {
	server = NewWebServer(a)
}

func NewWebServer(a app.AppContext) *WebServer {
	s := &WebServer{appctx: a}
	s.root = echo.New()
	s.root.HideBanner = true
	s.root.Use(middleware.Recover())
	s.root.Use(middleware.CORS())
	s.root.Use(middleware.BodyLimit("16M"))
	s.root.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	s.root.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextAppKey, a)
			c.Set(ContextDBKey, a.DB())
			return next(c)
		}
	})

	s.root.Static("/uploads", a.Config().GetUploadsDir())
	s.root.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": "Papeleria API"})
	})

	s.pub = s.root.Group("")
	s.sec = s.root.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(a.Config().Web.JwtSecret),
	}))
	return s
}

// Listen blocks serving the configured address.
func Listen() error {
	cfg := server.appctx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("web server listening on %s", addr)
	return server.root.Start(addr)
}

// Echo exposes the underlying instance (used in tests).
func Echo() *echo.Echo {
	return server.root
}

// PubGET registers an unauthenticated route.
func PubGET(path string, h echo.HandlerFunc) {
	server.pub.GET(path, h)
}

func PubPOST(path string, h echo.HandlerFunc) {
	server.pub.POST(path, h)
}

// ApiGET registers a bearer-JWT protected route.
func ApiGET(path string, h echo.HandlerFunc) {
	server.sec.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.sec.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.sec.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.sec.DELETE(path, h)
}
