package copypaste

import (
	"errors"
	"slices"

	"github.com/Benny93/graphclip/internal/graph"
)

// Mode selects the pasting policy of a reconstruction.
type Mode int

const (
	// Paste recreates clipboard content in an arbitrary target graph.
	Paste Mode = iota

	// Duplicate recreates a selection in place, next to its originals.
	Duplicate
)

func (m Mode) String() string {
	switch m {
	case Paste:
		return "paste"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// PlacematCopyPrefix is prepended to placemat titles by WithPlacematPrefix.
const PlacematCopyPrefix = "Copy of "

// ErrNoDestination is returned when Reconstruct has no graph to paste into.
var ErrNoDestination = errors.New("no destination graph")

// Result describes the elements a reconstruction created.
type Result struct {
	// Nodes maps original node identities, nested sub-nodes included, to
	// the nodes created for them.
	Nodes map[graph.ID]*graph.Node

	// Created lists the identity of every new element in creation order,
	// ready to become the host's selection.
	Created []graph.ID
}

// Reconstruct recreates a snapshot inside dest, offsetting positioned
// elements by delta. Elements that cannot be recreated are skipped. The only
// error is ErrNoDestination, in which case nothing is done.
func Reconstruct(s *Snapshot, mode Mode, delta graph.Vec2, dest *graph.Graph, opts ...Option) (*Result, error) {
	if dest == nil {
		return nil, ErrNoDestination
	}
	res := &Result{Nodes: make(map[graph.ID]*graph.Node)}
	if s == nil {
		return res, nil
	}

	r := &reconstructor{
		snap:   s,
		mode:   mode,
		delta:  delta,
		dest:   dest,
		opts:   newOptions(opts),
		remap:  newRemapper(),
		result: res,
	}
	if r.opts.destGroup != graph.NilID && dest.Group(r.opts.destGroup) == nil {
		r.opts.destGroup = graph.NilID
	}

	r.pasteGroups()
	r.pasteDeclarations()
	r.pasteImplicitDeclarations()
	r.pasteNodes()
	r.pairDeferredPortals()
	r.pasteWires()
	r.pasteStickyNotes()
	r.pastePlacemats()

	for orig, n := range r.remap.nodes {
		res.Nodes[orig] = n
	}
	return res, nil
}

type builtGroup struct {
	path  []string
	group *graph.Group
}

type deferredPortal struct {
	source *graph.Node
	node   *graph.Node

	// top is false for portals nested in a pasted container.
	top bool
}

type reconstructor struct {
	snap   *Snapshot
	mode   Mode
	delta  graph.Vec2
	dest   *graph.Graph
	opts   *options
	remap  *remapper
	result *Result

	// groups is indexed like the snapshot's group entries; nil marks a
	// group that could not be created.
	groups []*graph.Group

	// built lists every group created so far, synthesized ancestors
	// included, in creation order.
	built []builtGroup

	deferred []deferredPortal

	// existingPortals are the destination's portal nodes before any node
	// was pasted.
	existingPortals []*graph.Node
}

// created records a pasted element and runs its post-paste hook.
func (r *reconstructor) created(e graph.Element) {
	r.record(e)
	invokeHook(r.opts.logger, "after_paste", e, r.opts.hooks.AfterPaste)
}

// record lists a new element that was not captured in the snapshot, such as
// a synthesized ancestor group. It gets no hook.
func (r *reconstructor) record(e graph.Element) {
	r.result.Created = append(r.result.Created, e.ElementID())
}

// rootContainer is where top-level groups and loose declarations go: the
// caller's destination group, else the section with the given name, else
// the first section.
func (r *reconstructor) rootContainer(section string) graph.ID {
	if r.opts.destGroup != graph.NilID {
		return r.opts.destGroup
	}
	if s := r.dest.SectionByName(section); s != nil {
		return s.ID
	}
	if s := r.dest.FirstSection(); s != nil {
		return s.ID
	}
	return graph.NilID
}

// Step 1: groups.

func (r *reconstructor) pasteGroups() {
	entries := r.snap.data.Groups
	r.groups = make([]*graph.Group, len(entries))

	for i, e := range entries {
		if len(e.Path) < 2 {
			continue
		}
		var (
			gr  *graph.Group
			err error
		)
		if len(e.Path) == 2 {
			if r.mode == Duplicate && r.dest.Group(e.ID) != nil {
				gr, err = r.dest.InsertGroupAfter(e.Title(), e.ID)
			} else {
				parent := r.rootContainer(e.Path[0])
				if parent == graph.NilID {
					continue
				}
				gr, err = r.dest.AddGroup(e.Title(), parent)
			}
		} else {
			parent := r.parentFor(e.Path)
			if parent == nil {
				continue
			}
			gr, err = r.dest.AddGroup(e.Title(), parent.ID)
		}
		if err != nil {
			continue
		}

		gr.Expanded = e.Expanded
		r.groups[i] = gr
		r.built = append(r.built, builtGroup{path: e.Path, group: gr})
		r.created(gr)
	}
}

// parentFor returns the closest previously created group whose path is the
// direct prefix of path. Missing ancestors are rebuilt as new groups.
func (r *reconstructor) parentFor(path []string) *graph.Group {
	prefix := path[:len(path)-1]
	for i := len(r.built) - 1; i >= 0; i-- {
		if slices.Equal(r.built[i].path, prefix) {
			return r.built[i].group
		}
	}

	var parent graph.ID
	if len(prefix) == 2 {
		parent = r.rootContainer(prefix[0])
	} else if p := r.parentFor(prefix); p != nil {
		parent = p.ID
	}
	if parent == graph.NilID {
		return nil
	}
	gr, err := r.dest.AddGroup(prefix[len(prefix)-1], parent)
	if err != nil {
		return nil
	}
	gr.Expanded = true
	r.built = append(r.built, builtGroup{path: prefix, group: gr})
	r.record(gr)
	return gr
}

// Step 2: explicit declarations.

func (r *reconstructor) pasteDeclarations() {
	for _, e := range r.snap.data.Declarations {
		d := e.Declaration
		if d == nil || !r.dest.CanPasteDeclaration(d) {
			continue
		}
		parent, index := r.declarationTarget(e)
		if parent == graph.NilID {
			continue
		}
		nd, err := r.dest.DuplicateDeclaration(d, parent, index, false)
		if err != nil {
			continue
		}
		r.remap.declarations[d.ID] = nd
		r.dest.ExpandAncestors(nd.ID)
		r.created(nd)
	}
}

func (r *reconstructor) declarationTarget(e DeclarationEntry) (graph.ID, int) {
	if e.GroupIndex >= 0 && e.GroupIndex < len(r.groups) && r.groups[e.GroupIndex] != nil {
		return r.groups[e.GroupIndex].ID, -1
	}
	if r.mode == Duplicate && e.Parent != graph.NilID &&
		(r.dest.Group(e.Parent) != nil || r.dest.Section(e.Parent) != nil) {
		index := -1
		if p, ok := r.dest.ParentOf(e.Declaration.ID); ok && p == e.Parent {
			index = r.dest.IndexInParent(e.Declaration.ID) + 1
		}
		return e.Parent, index
	}
	return r.rootContainer(e.Section), -1
}

// Step 3: implicit declarations.

func (r *reconstructor) pasteImplicitDeclarations() {
	for _, e := range r.snap.data.ImplicitDeclarations {
		d := e.Declaration
		if d == nil {
			continue
		}
		if existing := r.dest.Declaration(d.ID); existing != nil {
			r.remap.declarations[d.ID] = existing
			continue
		}
		if !d.IsCopiable() || !r.dest.CanPasteDeclaration(d) {
			continue
		}
		parent := r.rootContainer(e.Section)
		if parent == graph.NilID {
			continue
		}
		nd, err := r.dest.DuplicateDeclaration(d, parent, -1, true)
		if err != nil {
			continue
		}
		r.remap.declarations[d.ID] = nd
		r.created(nd)
	}
}

// resolveDeclaration maps an original declaration identity into the
// destination. Declarations bound to an external resource fall back to any
// destination declaration bound to the same resource.
func (r *reconstructor) resolveDeclaration(id graph.ID) *graph.Declaration {
	if d, ok := r.remap.declarations[id]; ok {
		return d
	}
	if src := r.snap.declaration(id); src != nil && src.IsExternal() {
		return r.dest.DeclarationByExternalRef(src.ExternalRef)
	}
	return nil
}

// Step 4: nodes.

func (r *reconstructor) pasteNodes() {
	r.existingPortals = r.dest.PortalNodes()

	for _, n := range r.snap.data.Nodes {
		if n == nil || !r.dest.CanPasteNode(n) || n.RequiresContainer {
			continue
		}
		decls, ok := r.resolveVariables(n)
		if !ok {
			continue
		}

		nn, err := r.dest.DuplicateNode(n, r.delta)
		if err != nil {
			continue
		}
		r.remap.mapNode(n, nn)
		graph.Walk(n, func(x *graph.Node) {
			if d, ok := decls[x.ID]; ok {
				r.remap.nodes[x.ID].Declaration = d.ID
			}
		})

		graph.Walk(n, func(x *graph.Node) {
			if x != n && x.IsPortal() {
				r.bindPortal(x, r.remap.nodes[x.ID], false)
			}
		})

		if !nn.IsPortal() {
			r.created(nn)
			continue
		}
		r.bindPortal(n, nn, true)
	}
}

// resolveVariables resolves the declaration of every variable node in the
// subtree of n, keyed by original node identity. It fails if any variable
// cannot be resolved.
func (r *reconstructor) resolveVariables(n *graph.Node) (map[graph.ID]*graph.Declaration, bool) {
	out := make(map[graph.ID]*graph.Declaration)
	ok := true
	graph.Walk(n, func(x *graph.Node) {
		if !ok || !x.IsVariable() {
			return
		}
		d := r.resolveDeclaration(x.Declaration)
		if d == nil {
			ok = false
			return
		}
		out[x.ID] = d
	})
	if !ok {
		return nil, false
	}
	return out, true
}

// bindPortal resolves the declaration of a pasted portal, or defers it to
// the pairing step. Only top-level portals are reported as created; nested
// ones are reported through their container.
func (r *reconstructor) bindPortal(src, nn *graph.Node, top bool) {
	if nn == nil {
		return
	}
	orig := src.Portal.Declaration

	if pd, ok := r.remap.portals[orig]; ok {
		r.dest.BindPortal(nn, pd.ID)
		r.portalDone(nn, top)
		return
	}

	if !src.AllowsDeclarationSharing() && (r.destHasSameDirection(src) || r.snapshotHasCounterpart(src)) {
		if pd := r.duplicatePortalDeclaration(orig, src.Title); pd != nil {
			r.dest.BindPortal(nn, pd.ID)
		}
		r.portalDone(nn, top)
		return
	}

	r.deferred = append(r.deferred, deferredPortal{source: src, node: nn, top: top})
}

func (r *reconstructor) portalDone(nn *graph.Node, top bool) {
	if top {
		r.created(nn)
	}
}

// destHasSameDirection reports whether the destination already held a
// portal of the same direction on the original declaration.
func (r *reconstructor) destHasSameDirection(src *graph.Node) bool {
	for _, p := range r.existingPortals {
		if p.Portal.Declaration == src.Portal.Declaration && p.Portal.Direction == src.Portal.Direction {
			return true
		}
	}
	return false
}

// snapshotHasCounterpart reports whether the snapshot carries a portal of
// the other sharing category on the same declaration.
func (r *reconstructor) snapshotHasCounterpart(src *graph.Node) bool {
	found := false
	for _, root := range r.snap.data.Nodes {
		graph.Walk(root, func(n *graph.Node) {
			if found || n.ID == src.ID || !n.IsPortal() {
				return
			}
			if n.Portal.Declaration == src.Portal.Declaration &&
				n.AllowsDeclarationSharing() != src.AllowsDeclarationSharing() {
				found = true
			}
		})
	}
	return found
}

func (r *reconstructor) destHasPortalOn(decl graph.ID) bool {
	if r.dest.PortalDeclaration(decl) == nil {
		return false
	}
	for _, p := range r.existingPortals {
		if p.Portal.Declaration == decl {
			return true
		}
	}
	return false
}

func (r *reconstructor) duplicatePortalDeclaration(orig graph.ID, fallbackTitle string) *graph.PortalDeclaration {
	src := r.snap.portalDeclaration(orig)
	if src == nil {
		src = r.dest.PortalDeclaration(orig)
	}
	if src == nil {
		src = &graph.PortalDeclaration{ID: orig, Title: fallbackTitle}
	}
	pd, err := r.dest.DuplicatePortalDeclaration(src)
	if err != nil {
		return nil
	}
	r.remap.portals[orig] = pd
	return pd
}

// Step 5: deferred portal pairing.

func (r *reconstructor) pairDeferredPortals() {
	for _, p := range r.deferred {
		orig := p.source.Portal.Declaration
		switch pd, ok := r.remap.portals[orig]; {
		case ok:
			r.dest.BindPortal(p.node, pd.ID)
		case r.destHasPortalOn(orig):
			r.dest.BindPortal(p.node, orig)
		default:
			if pd := r.duplicatePortalDeclaration(orig, p.source.Title); pd != nil {
				r.dest.BindPortal(p.node, pd.ID)
			}
		}
		r.portalDone(p.node, p.top)
	}
	r.deferred = nil
}

// Step 6: wires.

func (r *reconstructor) pasteWires() {
	for _, w := range r.snap.data.Wires {
		if w == nil {
			continue
		}
		from, ok := r.remap.nodes[w.From.Node]
		if !ok {
			continue
		}
		to, ok := r.remap.nodes[w.To.Node]
		if !ok {
			continue
		}
		if !r.dest.CanPasteNode(from) || !r.dest.CanPasteNode(to) {
			continue
		}
		nw, err := r.dest.DuplicateWire(
			graph.PortRef{Node: from.ID, Port: w.From.Port},
			graph.PortRef{Node: to.ID, Port: w.To.Port},
		)
		if err != nil {
			continue
		}
		r.created(nw)
	}
}

// Step 7: sticky notes and placemats.

func (r *reconstructor) pasteStickyNotes() {
	for _, s := range r.snap.data.StickyNotes {
		if s == nil {
			continue
		}
		ns := s.Clone()
		ns.ID = graph.NewID()
		ns.Rect = s.Rect.Translate(r.delta)
		if err := r.dest.AddStickyNote(ns); err != nil {
			continue
		}
		r.created(ns)
	}
}

func (r *reconstructor) pastePlacemats() {
	for _, p := range r.snap.data.Placemats {
		if p == nil {
			continue
		}
		np := p.Clone()
		np.ID = graph.NewID()
		np.Rect = p.Rect.Translate(r.delta)
		if r.opts.placematPrefix {
			np.Title = PlacematCopyPrefix + p.Title
		}
		if err := r.dest.AddPlacemat(np); err != nil {
			continue
		}
		r.created(np)
	}
}
