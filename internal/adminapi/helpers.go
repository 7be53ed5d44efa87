package adminapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/papeleria/internal/app"
	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/webserver"
)

// InitRouter registers every API route on the web server.
func InitRouter() {
	registerAuthRoutes()
	registerProductRoutes()
}

func GetDB(c echo.Context) *gorm.DB {
	return c.Get(webserver.ContextDBKey).(*gorm.DB)
}

func GetApp(c echo.Context) app.AppContext {
	return c.Get(webserver.ContextAppKey).(app.AppContext)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(200, data)
}

// fail returns the service error contract: {"error": message}.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"error": message})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// oprlog records an operator action, best-effort.
func oprlog(c echo.Context, name, action, desc string) {
	GetDB(c).Create(&domain.SysOprLog{
		OprName:   name,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	})
}
