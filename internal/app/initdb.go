package app

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/talkincode/papeleria/internal/domain"
)

// checkAdmin creates the default operator account on first start and
// repairs a blanked password on later starts.
func (a *Application) checkAdmin() {
	email := a.appConfig.Admin.Email
	password := a.appConfig.Admin.Password

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default admin password", zap.Error(err))
		return
	}

	var user domain.SysUser
	err = a.gormDB.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysUser{
			Email:     email,
			Password:  string(hashed),
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("email", email))
		}
		return
	case err != nil:
		zap.L().Error("failed to query admin account", zap.Error(err))
		return
	}

	if user.Password == "" {
		if err := a.gormDB.Model(&domain.SysUser{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"password":   string(hashed),
			"updated_at": time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to repair admin account", zap.Error(err))
			return
		}
		zap.L().Warn("repaired default admin account", zap.String("email", email))
	}
}
