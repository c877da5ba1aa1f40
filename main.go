// Package main provides the entry point for the bingo grid calibrator.
//
// Usage: bingo-calibrate [image]
package main

import (
	"os"

	"fyne.io/fyne/v2/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"bingo-kit/internal/config"
	"bingo-kit/internal/version"
	"bingo-kit/ui/calibrate"
	"bingo-kit/ui/prefs"
)

const appID = "io.github.bingo-kit.calibrate"

func main() {
	cfg, err := config.Load(viper.New(), os.Getenv("BINGO_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Log.Apply(log.StandardLogger()); err != nil {
		log.Fatal(err)
	}
	params, err := cfg.DetectionParams()
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("version", version.Version).Info("starting calibrator")

	fyneApp := app.NewWithID(appID)
	fyneApp.Settings().SetTheme(calibrate.Theme())
	appPrefs := prefs.Load()

	win := calibrate.New(fyneApp, appPrefs, cfg.Output.GridConfig, params)

	path := appPrefs.String(prefs.KeyLastImage)
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path != "" {
		if err := win.Open(path); err != nil {
			log.WithError(err).WithField("path", path).Warn("failed to open image")
		}
	}

	win.ShowAndRun()
}
