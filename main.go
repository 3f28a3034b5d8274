package main

import (
	"fmt"
	"os"
	goruntime "runtime"

	"voxshell/internal/config"
	"voxshell/internal/hotkey"
	"voxshell/internal/logging"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, configDir, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig(cfg.AppName)
	logCfg.DevMode = cfg.DevMode
	if err := logging.Init(logCfg); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
	}

	if cfg.DevMode {
		if err := cfg.ValidateStrict(); err != nil {
			logging.Error("Invalid configuration", "error", err)
			os.Exit(1)
		}
	} else if verr := cfg.Validate(); verr != nil {
		for _, w := range verr.Warnings {
			logging.Warn("Config corrected", "detail", w)
		}
	}
	if _, err := hotkey.Parse(cfg.DefaultHotkey); err != nil {
		logging.Warn("Configured default hotkey is invalid", "hotkey", cfg.DefaultHotkey, "error", err)
		cfg.DefaultHotkey = config.DefaultHotkey
	}

	app, err := NewApp(cfg, configDir)
	if err != nil {
		logging.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	width, height := app.initialSize()
	err = wails.Run(&options.App{
		Title:       cfg.AppName,
		Width:       width,
		Height:      height,
		MinWidth:    400,
		MinHeight:   300,
		StartHidden: true,
		AssetServer: &assetserver.Options{
			Handler: app.proxy,
		},
		Menu:              devMenu(app),
		BackgroundColour:  &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		HideWindowOnClose: app.lifecycle.HideOnClose,
		OnStartup:         app.startup,
		OnDomReady:        app.domReady,
		OnBeforeClose:     app.beforeClose,
		OnShutdown:        app.shutdown,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               "com.voxshell.desktop",
			OnSecondInstanceLaunch: app.onSecondInstance,
		},
		Bind: []interface{}{
			app.bridge,
		},
		Mac: &mac.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
		},
		Debug: options.Debug{
			OpenInspectorOnStartup: false,
		},
	})

	if err != nil {
		logging.Error("Application exited with error", "error", err)
		println("Error:", err.Error())
	}
}

func loadConfig() (config.Config, string, error) {
	dir, err := config.Dir(config.DefaultAppName)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("locate config dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, "", err
	}
	cfg.Version = version
	if version == "dev" {
		cfg.DevMode = true
	}
	return cfg, dir, nil
}

// devMenu adds a Developer menu in dev posture and leaves the platform
// default menu alone otherwise
func devMenu(app *App) *menu.Menu {
	if !app.cfg.DevMode {
		return nil
	}

	m := menu.NewMenu()
	if goruntime.GOOS == "darwin" {
		m.Append(menu.AppMenu())
		m.Append(menu.EditMenu())
	}
	dev := m.AddSubmenu("Developer")
	dev.AddText("Reset Settings", nil, func(_ *menu.CallbackData) {
		if err := app.ResetSettings(); err != nil {
			logging.Error("Failed to reset settings", "error", err)
			return
		}
		logging.Info("Settings reset to defaults")
	})
	return m
}
