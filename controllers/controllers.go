// Package controllers holds force fields that plug into a dynamics.World
// through AddController.
package controllers

import (
	"github.com/koteyur/physac2d/dynamics"
)

// affected reports whether a controller should touch b. Sleeping bodies are
// left alone so a field does not keep a settled scene awake.
func affected(b *dynamics.Body, filter func(*dynamics.Body) bool) bool {
	if b.Type() != dynamics.Dynamic || !b.IsAwake() || !b.IsEnabled() {
		return false
	}
	return filter == nil || filter(b)
}
