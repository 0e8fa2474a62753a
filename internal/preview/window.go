package preview

import "gocv.io/x/gocv"

// DefaultTitle is the window title the receiving side expects to see.
const DefaultTitle = "Image"

const (
	keyEsc = 27
	keyQ   = 'q'
)

// Window is an OS window showing the annotated frames.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	if title == "" {
		title = DefaultTitle
	}
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays frame and waits 1ms for a key press. It reports true when
// the user asked to quit with q or Esc.
func (w *Window) Show(frame gocv.Mat) bool {
	w.win.IMShow(frame)
	return isQuitKey(w.win.WaitKey(1))
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

func isQuitKey(key int) bool {
	if key < 0 {
		return false
	}
	switch key & 0xff {
	case keyQ, 'Q', keyEsc:
		return true
	}
	return false
}
