package syntax

// Handler processes one node of a registered kind. Returning true stops the
// walker from descending into that node's children.
type Handler func(n Node) bool

// Walker traverses a tree in preorder and dispatches handlers by node kind.
type Walker struct {
	handlers map[string][]Handler
}

func NewWalker() *Walker {
	return &Walker{handlers: make(map[string][]Handler)}
}

// On registers h for kind. Handlers for the same kind run in registration order.
func (w *Walker) On(kind string, h Handler) {
	w.handlers[kind] = append(w.handlers[kind], h)
}

func (w *Walker) Walk(node Node) {
	if node.IsZero() {
		return
	}

	stop := false
	for _, h := range w.handlers[node.Kind()] {
		if h(node) {
			stop = true
		}
	}
	if stop {
		return
	}
	for i := uint(0); i < node.raw.ChildCount(); i++ {
		w.Walk(node.wrap(node.raw.Child(i)))
	}
}
