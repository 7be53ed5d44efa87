package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/talkincode/papeleria/config"
	"github.com/talkincode/papeleria/internal/adminapi"
	"github.com/talkincode/papeleria/internal/app"
	"github.com/talkincode/papeleria/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "show help")
	x        = flag.Bool("x", false, "debug mode")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database schema")
	conffile = flag.String("c", "papeleria.yml", "config file path")
)

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.LoadConfig(*conffile)
	if *x {
		cfg.System.Debug = true
		cfg.Database.Debug = true
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		fmt.Println("database initialized")
		return
	}

	webserver.Init(application)
	adminapi.InitRouter()

	if err := webserver.Listen(); err != nil {
		zap.S().Fatal(err)
	}
}
