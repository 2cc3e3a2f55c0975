package main

import (
	"embed"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/user/oi_visualizer_go/internal/config"
)

//go:embed all:frontend/public
var assets embed.FS

func main() {
	cfg, err := config.Load(os.Getenv("OIVIZ_CONFIG"))
	if err != nil {
		log.Fatal("Error loading config: ", err.Error())
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	app := NewApp(cfg, logger) // Defined in app.go

	err = wails.Run(&options.App{
		Title:  "OI Visualizer",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 46, G: 46, B: 46, A: 255}, // #2e2e2e
		OnStartup:        app.Startup,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		log.Fatal("Error running Wails app: ", err.Error())
	}
}
