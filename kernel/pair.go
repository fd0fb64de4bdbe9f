package kernel

// PlanPair couples the forward and backward plans for one axis of one
// rank. The two slots may hold the same handle: gonum's transform objects
// are bidirectional, and the self-inverse type-IV r2r kernels need no
// second plan. Destroy uses pointer equality so a shared handle is
// released exactly once.
type PlanPair struct {
	Fwd *Plan
	Bwd *Plan
}

// Shared reports whether both directions run through one handle.
func (pp PlanPair) Shared() bool {
	return pp.Fwd != nil && pp.Fwd == pp.Bwd
}

// Destroy releases both plans, each at most once.
func (pp *PlanPair) Destroy() {
	if pp.Bwd != nil && pp.Bwd != pp.Fwd {
		pp.Bwd.Destroy()
	}
	if pp.Fwd != nil {
		pp.Fwd.Destroy()
	}
	pp.Fwd = nil
	pp.Bwd = nil
}
