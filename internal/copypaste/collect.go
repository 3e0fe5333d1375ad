package copypaste

import (
	"github.com/Benny93/graphclip/internal/graph"
)

// CollectOption configures Collect.
type CollectOption func(*collectOptions)

type collectOptions struct {
	eligible          func(graph.Element) bool
	groupDeclarations bool
}

// WithEligibility replaces the default eligibility predicate
// (Element.IsCopiable). Elements failing it are dropped silently.
func WithEligibility(pred func(graph.Element) bool) CollectOption {
	return func(o *collectOptions) {
		if pred != nil {
			o.eligible = pred
		}
	}
}

// WithGroupDeclarations also collects the declarations owned by every
// collected group.
func WithGroupDeclarations() CollectOption {
	return func(o *collectOptions) { o.groupDeclarations = true }
}

// Collect returns the closure of the selection: the eligible selected
// elements plus every sub-group nested in a selected group. Groups whose
// ancestor is selected as well are reached through that ancestor only.
// The result is de-duplicated and carries no ordering guarantee.
func Collect(g *graph.Graph, selection []graph.Element, opts ...CollectOption) []graph.Element {
	o := &collectOptions{eligible: func(e graph.Element) bool { return e.IsCopiable() }}
	for _, opt := range opts {
		opt(o)
	}

	seen := make(map[graph.ID]bool)
	var out []graph.Element
	add := func(e graph.Element) bool {
		if e == nil || seen[e.ElementID()] || !o.eligible(e) {
			return false
		}
		seen[e.ElementID()] = true
		out = append(out, e)
		return true
	}

	var selected []*graph.Group
	for _, e := range selection {
		if add(e) {
			if gr, ok := e.(*graph.Group); ok {
				selected = append(selected, gr)
			}
		}
	}
	if g == nil {
		return out
	}

	for _, gr := range selected {
		if subsumed(g, gr, selected) {
			continue
		}
		collectGroup(g, gr.ID, o, add)
	}
	return out
}

func subsumed(g *graph.Graph, gr *graph.Group, selected []*graph.Group) bool {
	for _, other := range selected {
		if other.ID != gr.ID && g.IsAncestor(other.ID, gr.ID) {
			return true
		}
	}
	return false
}

func collectGroup(g *graph.Graph, id graph.ID, o *collectOptions, add func(graph.Element) bool) {
	for _, item := range g.Items(id) {
		if sub := g.Group(item); sub != nil {
			add(sub)
			collectGroup(g, sub.ID, o, add)
			continue
		}
		if o.groupDeclarations {
			if d := g.Declaration(item); d != nil {
				add(d)
			}
		}
	}
}
