// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"bbox-annotator/internal/app"
	"bbox-annotator/pkg/colorutil"
	"bbox-annotator/ui/canvas"
	"bbox-annotator/ui/prefs"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.Canvas
	statusBar *widget.Label

	fileList       *widget.List
	labelEntry     *widget.Entry
	knownLabels    *widget.List
	annotationList *widget.List
	groupCheck     *widget.Check
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("BBox Annotator")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	win.Resize(fyne.NewSize(1100, 700))

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(
		mw.state.Annotations,
		mw.state.Labels,
		mw.state.Drawing,
		mw.state.Editing,
	)
	mw.canvas.SetAppearance(mw.state.Prefs.Appearance())

	mw.statusBar = widget.NewLabel("Ready")

	mw.fileList = widget.NewList(
		func() int { return len(mw.state.Source.Paths()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			paths := mw.state.Source.Paths()
			if i >= len(paths) {
				return
			}
			name := filepath.Base(paths[i])
			if _, err := os.Stat(mw.state.AnnotationPath(paths[i])); err == nil {
				name += " ✓"
			}
			obj.(*widget.Label).SetText(name)
		},
	)
	mw.fileList.OnSelected = func(i widget.ListItemID) {
		if err := mw.state.SelectImage(i); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}

	mw.labelEntry = widget.NewEntry()
	mw.labelEntry.SetPlaceHolder("label")
	mw.labelEntry.OnChanged = func(text string) {
		mw.state.Labels.SetCurrent(text)
	}

	mw.knownLabels = widget.NewList(
		func() int { return len(mw.state.Labels.Known()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			known := mw.state.Labels.Known()
			if i < len(known) {
				obj.(*widget.Label).SetText(known[i])
			}
		},
	)
	mw.knownLabels.OnSelected = func(i widget.ListItemID) {
		known := mw.state.Labels.Known()
		if i < len(known) {
			mw.labelEntry.SetText(known[i])
		}
	}

	mw.annotationList = widget.NewList(
		func() int { return len(mw.state.Annotations.Boxes()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			boxes := mw.state.Annotations.Boxes()
			if i >= len(boxes) {
				return
			}
			b := boxes[i].Box().Normalized()
			obj.(*widget.Label).SetText(fmt.Sprintf("%s [%.0f,%.0f,%.0f,%.0f]",
				boxes[i].Label(), b.P0.X, b.P0.Y, b.P1.X, b.P1.Y))
		},
	)
	mw.annotationList.OnSelected = func(i widget.ListItemID) {
		if err := mw.state.Annotations.Select(i); err != nil {
			return
		}
		mw.canvas.Refresh()
	}

	mw.groupCheck = widget.NewCheck("Highlight label group", func(on bool) {
		mw.canvas.SetGroupMode(on)
	})

	sidePanel := container.NewVSplit(
		container.NewBorder(widget.NewLabel("Images"), nil, nil, nil, mw.fileList),
		container.NewVSplit(
			container.NewBorder(
				container.NewVBox(widget.NewLabel("Label"), mw.labelEntry, mw.groupCheck),
				nil, nil, nil,
				mw.knownLabels,
			),
			container.NewBorder(
				container.NewHBox(
					widget.NewLabel("Annotations"),
					widget.NewButton("Rename", mw.onRenameAnnotation),
					widget.NewButton("Delete", mw.onDeleteAnnotation),
				),
				nil, nil, nil,
				mw.annotationList,
			),
		),
	)

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	split := container.NewHSplit(sidePanel, canvasArea)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with tool and navigation controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	tools := widget.NewRadioGroup([]string{"Pan", "Draw", "Edit"}, func(sel string) {
		switch sel {
		case "Draw":
			mw.canvas.SetTool(canvas.ToolDraw)
		case "Edit":
			mw.canvas.SetTool(canvas.ToolEdit)
		default:
			mw.canvas.SetTool(canvas.ToolPan)
		}
	})
	tools.Horizontal = true
	tools.SetSelected("Pan")

	zoomOutBtn := widget.NewButton("-", mw.onZoomOut)
	zoomInBtn := widget.NewButton("+", mw.onZoomIn)
	fitBtn := widget.NewButton("Fit", mw.onFit)
	prevBtn := widget.NewButton("<", mw.onPrevImage)
	nextBtn := widget.NewButton(">", mw.onNextImage)

	return container.NewHBox(
		tools,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		widget.NewSeparator(),
		prevBtn,
		nextBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Directory...", mw.onOpenDirectory),
		fyne.NewMenuItem("Change Output Directory...", mw.onChangeOutputDir),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Annotations", mw.onSave),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Rename Annotation...", mw.onRenameAnnotation),
		fyne.NewMenuItem("Delete Annotation", mw.onDeleteAnnotation),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences...", mw.onPreferences),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.onFit),
	)

	navMenu := fyne.NewMenu("Navigate",
		fyne.NewMenuItem("Next Image", mw.onNextImage),
		fyne.NewMenuItem("Previous Image", mw.onPrevImage),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, navMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDirectoryOpened, func(data interface{}) {
		if dir, ok := data.(string); ok {
			mw.SetTitle("BBox Annotator - " + filepath.Base(dir))
			mw.updateStatus(fmt.Sprintf("Opened %s (%d images)", dir, len(mw.state.Source.Paths())))
		}
		mw.fileList.Refresh()
		mw.knownLabels.Refresh()
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.canvas.SetImage(mw.state.Source.Current())
		mw.annotationList.Refresh()
		mw.fileList.Refresh()
		if path, ok := data.(string); ok && path != "" {
			mw.updateStatus("Loaded " + filepath.Base(path))
		}
	})

	mw.state.On(app.EventAnnotationsChanged, func(interface{}) {
		mw.annotationList.Refresh()
		mw.knownLabels.Refresh()
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if dirty, ok := data.(bool); ok && dirty {
			mw.updateStatus("Unsaved changes")
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) lastDirLocation() fyne.ListableURI {
	path := mw.state.Prefs.String(prefs.KeyLastDirectory, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// Menu action handlers

func (mw *MainWindow) onOpenDirectory() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		if err := mw.state.OpenDirectory(uri.Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	if loc := mw.lastDirLocation(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onChangeOutputDir() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		if err := mw.state.SetOutputDir(uri.Path()); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Output directory: " + uri.Path())
		mw.fileList.Refresh()
	}, mw.Window)
	fd.Show()
}

func (mw *MainWindow) onSave() {
	if err := mw.state.Annotations.Save(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Annotations saved")
	mw.fileList.Refresh()
}

func (mw *MainWindow) onRenameAnnotation() {
	index := mw.state.Annotations.SelectedIndex()
	if index < 0 {
		mw.updateStatus("No annotation selected")
		return
	}

	entry := widget.NewEntry()
	entry.SetText(mw.state.Annotations.Boxes()[index].Label())
	dialog.ShowForm("Rename Annotation", "Rename", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Label", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			if err := mw.state.Annotations.Rename(index, entry.Text); err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.state.Labels.Add(entry.Text)
		}, mw.Window)
}

func (mw *MainWindow) onDeleteAnnotation() {
	index := mw.state.Annotations.SelectedIndex()
	if index < 0 {
		mw.updateStatus("No annotation selected")
		return
	}
	if err := mw.state.Annotations.Delete(index); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onPreferences() {
	look := mw.canvas.Appearance()

	boxEntry := widget.NewEntry()
	boxEntry.SetText(hexOf(look.BoxColor))
	selEntry := widget.NewEntry()
	selEntry.SetText(hexOf(look.SelectedColor))
	labelEntry := widget.NewEntry()
	labelEntry.SetText(hexOf(look.LabelColor))
	handleEntry := widget.NewEntry()
	handleEntry.SetText(hexOf(look.HandleColor))

	dialog.ShowForm("Appearance", "Apply", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Box color", boxEntry),
			widget.NewFormItem("Selected color", selEntry),
			widget.NewFormItem("Label color", labelEntry),
			widget.NewFormItem("Point color", handleEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			look.BoxColor = parseHexOr(boxEntry.Text, look.BoxColor)
			look.SelectedColor = parseHexOr(selEntry.Text, look.SelectedColor)
			look.LabelColor = parseHexOr(labelEntry.Text, look.LabelColor)
			look.HandleColor = parseHexOr(handleEntry.Text, look.HandleColor)
			mw.canvas.SetAppearance(look)
			mw.state.Prefs.SetAppearance(look)
			if err := mw.state.Prefs.Save(); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}, mw.Window)
}

func (mw *MainWindow) onZoomIn() {
	if err := mw.canvas.Viewport().Zoom(1.25); err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) onZoomOut() {
	if err := mw.canvas.Viewport().Zoom(0.8); err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) onFit() {
	mw.canvas.SetImage(mw.canvas.Image())
}

func (mw *MainWindow) onNextImage() {
	if err := mw.state.NextImage(); err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) onPrevImage() {
	if err := mw.state.PrevImage(); err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About",
		"BBox Annotator\nDraw, edit, and label bounding boxes on image directories.",
		mw.Window)
}

func hexOf(c color.RGBA) string {
	return colorutil.FormatHex(c)
}

func parseHexOr(s string, fallback color.RGBA) color.RGBA {
	c, err := colorutil.ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}
