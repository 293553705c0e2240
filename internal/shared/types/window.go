package types

// WindowState captures the floating chat window geometry. It is persisted
// independently of sessions.
type WindowState struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultWindow returns the initial geometry for a fresh install.
func DefaultWindow() WindowState {
	return WindowState{X: 24, Y: 24, Width: 380, Height: 560}
}

// ClampTo constrains the window to the given viewport. The size is capped
// to the viewport first, then the position is shifted so the window stays
// fully visible.
func (w WindowState) ClampTo(viewportW, viewportH int) WindowState {
	if viewportW <= 0 || viewportH <= 0 {
		return w
	}
	if w.Width > viewportW {
		w.Width = viewportW
	}
	if w.Height > viewportH {
		w.Height = viewportH
	}
	w.X = clamp(w.X, 0, viewportW-w.Width)
	w.Y = clamp(w.Y, 0, viewportH-w.Height)
	return w
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
