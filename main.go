// Package main provides the entry point for the BBox Annotator application.
package main

import (
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"bbox-annotator/internal/app"
	"bbox-annotator/ui/mainwindow"
	"bbox-annotator/ui/prefs"
)

const (
	appTitle   = "BBox Annotator"
	appVersion = "0.1.0"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, appVersion)

	fyneApp := fyneapp.NewWithID("io.bboxannotator.app")

	appPrefs := prefs.Load()
	appState := app.NewState(appPrefs)

	win := mainwindow.New(fyneApp, appState)

	// Open the directory from the command line, falling back to the last
	// one used.
	dir := appPrefs.String(prefs.KeyLastDirectory, "")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if dir != "" {
		if err := appState.OpenDirectory(dir); err != nil {
			log.Printf("Failed to open directory %s: %v", dir, err)
		}
	}

	win.SetCloseIntercept(func() {
		if err := appState.Shutdown(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
		win.Close()
	})

	win.ShowAndRun()
}
