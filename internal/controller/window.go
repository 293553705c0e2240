package controller

import "github.com/OBress/CanvAI/internal/shared/types"

// Window returns the persisted chat window geometry.
func (c *Controller) Window() types.WindowState {
	return c.store.Window()
}

// UpdateWindow clamps the geometry to the viewport and persists it.
// Window state is independent of sessions.
func (c *Controller) UpdateWindow(window types.WindowState, viewportW, viewportH int) error {
	return c.store.SetWindow(window.ClampTo(viewportW, viewportH))
}
