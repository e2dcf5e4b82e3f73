package ui

import "sync/atomic"

// Guard tells a view whether the response it is about to apply is still
// wanted. Every Begin or Invalidate makes all earlier tokens inactive.
type Guard struct {
	gen atomic.Uint64
}

func (g *Guard) Begin() uint64 {
	return g.gen.Add(1)
}

func (g *Guard) Active(token uint64) bool {
	return g.gen.Load() == token
}

// Invalidate drops every outstanding token, typically on navigation.
func (g *Guard) Invalidate() {
	g.gen.Add(1)
}
