// Package tray provides a system tray menu for pausing transmission and
// quitting handcast.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handcast/internal/gesture"
)

const (
	titleSending = "● Sending"
	titlePaused  = "○ Paused"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	last     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLastSignal *systray.MenuItem
}

// New creates a new Tray with sending enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		last:    "none",
	}
}

// OnToggle sets the callback invoked when sending is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback invoked when Quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("handcast")
	systray.SetTooltip("handcast hand tracking")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume sending landmarks")
	systray.AddSeparator()

	t.menuLastSignal = systray.AddMenuItem(lastTitle(t.last), "Last gesture signal sent")
	t.menuLastSignal.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handcast")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuQuit.ClickedCh:
				t.quit()
				return
			}
		}
	}()
}

// toggle flips the sending state and reports it to the callback.
func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) quit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastSignal updates the last signal shown in the menu.
func (t *Tray) SetLastSignal(s gesture.Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = s.String()
	if t.menuLastSignal != nil {
		t.menuLastSignal.SetTitle(lastTitle(t.last))
	}
}

// LastSignal returns the label of the last signal reported.
func (t *Tray) LastSignal() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled reports whether sending is enabled.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return titleSending
	}
	return titlePaused
}

func lastTitle(name string) string {
	return "Last: " + name
}
