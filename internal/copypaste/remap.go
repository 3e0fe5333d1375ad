package copypaste

import (
	"github.com/Benny93/graphclip/internal/graph"
)

// remapper maps original identities to the elements created for them during
// one reconstruction.
type remapper struct {
	nodes        map[graph.ID]*graph.Node
	declarations map[graph.ID]*graph.Declaration
	portals      map[graph.ID]*graph.PortalDeclaration
}

func newRemapper() *remapper {
	return &remapper{
		nodes:        make(map[graph.ID]*graph.Node),
		declarations: make(map[graph.ID]*graph.Declaration),
		portals:      make(map[graph.ID]*graph.PortalDeclaration),
	}
}

// mapNode records orig -> created and recurses into container sub-elements,
// pairing both sub-element lists position by position.
func (r *remapper) mapNode(orig, created *graph.Node) {
	if orig == nil || created == nil {
		return
	}
	r.nodes[orig.ID] = created

	oc, ok := graph.AsContainer(orig)
	if !ok {
		return
	}
	nc, ok := graph.AsContainer(created)
	if !ok {
		return
	}
	from, to := oc.SubElements(), nc.SubElements()
	for i := 0; i < len(from) && i < len(to); i++ {
		r.mapNode(from[i], to[i])
	}
}
