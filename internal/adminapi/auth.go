package adminapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/webserver"
)

const tokenLifetime = 12 * time.Hour

func registerAuthRoutes() {
	webserver.PubPOST("/api/auth/login", login)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Faltan credenciales")
	}
	if payload.Email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "Faltan credenciales")
	}

	var user domain.SysUser
	err := GetDB(c).Where("email = ?", payload.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusUnauthorized, "Usuario no encontrado")
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "Error DB")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "Contraseña incorrecta")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(tokenLifetime).Unix(),
	})
	signed, err := token.SignedString([]byte(GetApp(c).Config().Web.JwtSecret))
	if err != nil {
		zap.L().Error("adminapi: token signing failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Error DB")
	}

	GetDB(c).Model(&domain.SysUser{}).Where("id = ?", user.ID).
		Update("last_login", time.Now())
	oprlog(c, user.Email, "login", "operator login")

	return ok(c, echo.Map{"token": signed})
}
