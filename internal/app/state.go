package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/goifc/internal/navigation"
	"github.com/philipparndt/goifc/pkg/watcher"
)

// CameraState holds all camera-related state
type CameraState struct {
	camera rl.Camera3D
	orbit  *navigation.Orbit
	fovY   float64 // degrees
}

// ViewSettings holds display settings
type ViewSettings struct {
	background rl.Color
	showGrid   bool
	showAxes   bool
	showEdges  bool
	showHelp   bool
	shadows    bool
	gridY      float64
}

// InteractionState holds mouse, touch and keyboard state
type InteractionState struct {
	keys        navigation.Keyboard
	dragButton  rl.MouseButton
	dragging    bool
	touchActive bool
	touchDist   float32
	touchMid    rl.Vector2
}

// FileWatchState holds file watching and reload state
type FileWatchState struct {
	enabled     bool
	fileWatcher *watcher.FileWatcher
	watched     string      // absolute path currently watched
	reloads     chan string // written by the watcher, drained by the main loop
}

// UIState holds UI-related state
type UIState struct {
	font rl.Font
}
