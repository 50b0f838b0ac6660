package snake

import "github.com/vovakirdan/snake-arena/internal/core"

// Router turns key presses into the game's pending direction. Presses between
// two ticks collapse to the last one. With the reversal guard on, a press that
// would send a multi-segment snake straight back into its own neck is dropped.
type Router struct {
	guardReversal bool
}

// NewRouter creates a router. guardReversal selects the reversal policy.
func NewRouter(guardReversal bool) *Router {
	return &Router{guardReversal: guardReversal}
}

// Route applies a directional action to the game. It reports whether the
// pending direction was updated.
func (r *Router) Route(g *Game, a core.Action) bool {
	d, ok := a.Direction()
	if !ok || !g.Alive() {
		return false
	}
	if r.guardReversal && g.Len() > 1 && d == g.Direction().Opposite() {
		return false
	}
	g.SetPendingDirection(d)
	return true
}

// RouteKey maps a raw key identifier and routes it. Keys without a direction
// are ignored.
func (r *Router) RouteKey(g *Game, key string) bool {
	return r.Route(g, core.ActionForKey(key))
}
