// Package app wires capture, detection, encoding and transport into the
// per-frame loop.
package app

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcast/internal/capture"
	"github.com/ayusman/handcast/internal/detector"
	"github.com/ayusman/handcast/internal/gesture"
	"github.com/ayusman/handcast/internal/metrics"
	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/preview"
	"github.com/ayusman/handcast/internal/transport"
)

// DefaultMaxReadFailures is the number of consecutive failed camera reads
// after which Run gives up.
const DefaultMaxReadFailures = 30

// ErrTooManyReadFailures is returned by Run when the camera keeps failing.
var ErrTooManyReadFailures = errors.New("too many consecutive camera read failures")

// Recorder persists transmitted payloads. SetFrameSize is called once, with
// the size of the first recorded frame, before the first Record.
type Recorder interface {
	SetFrameSize(width, height int) error
	Record(p payload.Payload, at time.Time) error
}

// Display shows a frame and reports whether the user asked to quit.
type Display interface {
	Show(frame gocv.Mat) bool
}

// Config holds the pipeline's collaborators and options. Camera, Detector
// and Sender are required; the rest are optional.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Sender   transport.Sender

	// Format encodes payloads. Defaults to the list format.
	Format payload.Format
	// Gesture appends the open/closed signal to every payload.
	Gesture bool
	// MaxReadFailures defaults to DefaultMaxReadFailures.
	MaxReadFailures int

	Display  Display
	Hub      *preview.Hub
	Recorder Recorder
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	// OnSignal is called with the signal of every payload sent in gesture mode.
	OnSignal func(gesture.Signal)
}

// App is the capture-detect-send pipeline.
type App struct {
	config  Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	format  payload.Format
	enabled bool
	mu      sync.RWMutex

	sizeOnce sync.Once
}

// New creates a new App with sending enabled.
func New(config Config) *App {
	a := &App{
		config:  config,
		logger:  config.Logger,
		metrics: config.Metrics,
		format:  config.Format,
		enabled: true,
	}

	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	if a.format == nil {
		a.format = payload.ListFormat{WithSignal: config.Gesture}
	}
	if a.config.MaxReadFailures <= 0 {
		a.config.MaxReadFailures = DefaultMaxReadFailures
	}

	return a
}

// SetEnabled pauses or resumes sending. Capture and preview continue while
// paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether payloads are being sent.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Metrics returns the collectors updated by the pipeline.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}
