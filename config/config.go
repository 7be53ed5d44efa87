package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type AdminConfig struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type StorefrontConfig struct {
	// WhatsappNumber receives order messages, E.164 format.
	WhatsappNumber string `yaml:"whatsapp_number" json:"whatsapp_number"`
}

type AppConfig struct {
	System     SysConfig        `yaml:"system" json:"system"`
	Web        WebConfig        `yaml:"web" json:"web"`
	Database   DBConfig         `yaml:"database" json:"database"`
	Admin      AdminConfig      `yaml:"admin" json:"admin"`
	Logger     LoggerConfig     `yaml:"logger" json:"logger"`
	Storefront StorefrontConfig `yaml:"storefront" json:"storefront"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetUploadsDir() string {
	return filepath.Join(c.System.Workdir, "uploads")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Papeleria",
		Location: "America/Mexico_City",
		Workdir:  "/var/papeleria",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      3000,
		JwtSecret: "9b6de5cc-papeleria-0cc1-11ef",
	},
	Database: DBConfig{
		Type:     "sqlite",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "papeleria",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Admin: AdminConfig{
		Email:    "admin@local",
		Password: "admin123",
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/papeleria/papeleria.log",
	},
	Storefront: StorefrontConfig{
		WhatsappNumber: "+527291541450",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue == "true" || evalue == "1" || evalue == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	var ivalue int
	if _, err := fmt.Sscanf(evalue, "%d", &ivalue); err == nil {
		f(ivalue)
	}
}

// LoadConfig reads the YAML config file when it exists and applies
// PAPELERIA_* environment overrides on top.
func LoadConfig(cfile string) *AppConfig {
	if cfile == "" {
		cfile = "papeleria.yml"
	}
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if _, err := os.Stat(cfile); err == nil {
		data, err := os.ReadFile(cfile)
		if err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("PAPELERIA_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("PAPELERIA_SYSTEM_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvBoolValue("PAPELERIA_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })

	setEnvValue("PAPELERIA_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("PAPELERIA_WEB_PORT", func(v int) { cfg.Web.Port = v })
	setEnvValue("PAPELERIA_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })

	setEnvValue("PAPELERIA_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("PAPELERIA_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("PAPELERIA_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("PAPELERIA_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("PAPELERIA_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("PAPELERIA_DB_PWD", func(v string) { cfg.Database.Passwd = v })

	setEnvValue("PAPELERIA_ADMIN_EMAIL", func(v string) { cfg.Admin.Email = v })
	setEnvValue("PAPELERIA_ADMIN_PASSWORD", func(v string) { cfg.Admin.Password = v })

	setEnvValue("PAPELERIA_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvValue("PAPELERIA_WHATSAPP_NUMBER", func(v string) { cfg.Storefront.WhatsappNumber = v })

	return cfg
}
