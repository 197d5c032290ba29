package dynamics

// Controller applies its own forces to bodies once per step, before the
// contacts are updated. Implementations embed ControllerBase.
type Controller interface {
	// Update runs inside Step. The world is locked, so structural changes
	// are queued.
	Update(dt float64)

	attach(w *World)
	controllerBase() *ControllerBase
}

// ControllerBase tracks the World a controller belongs to.
type ControllerBase struct {
	world    *World
	state    membership
	disabled bool
}

func (c *ControllerBase) attach(w *World) { c.world = w }

func (c *ControllerBase) controllerBase() *ControllerBase { return c }

// World returns the world the controller was added to, or nil.
func (c *ControllerBase) World() *World { return c.world }

// Enabled reports whether Update is called. Controllers start enabled.
// A controller disabled before it is added stays disabled.
func (c *ControllerBase) Enabled() bool { return !c.disabled }

func (c *ControllerBase) SetEnabled(flag bool) { c.disabled = !flag }
