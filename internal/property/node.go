package property

import "sync"

// ChangeFunc receives the dotted path and the new value of every write.
type ChangeFunc func(path string, v any)

// Binding links an element to its owner.
type Binding struct {
	Owner ID
	// Guard is held while the element's state is written. Owners that
	// read element state from another goroutine pass the lock they read
	// under.
	Guard    sync.Locker
	OnChange ChangeFunc
}

// Node is the common element implementation embedded by layers and effects:
// a handle, an owner binding, a property bag and filters.
type Node struct {
	id      ID
	props   Bag
	filters map[string]Filter
	link    *link
}

type link struct {
	mu sync.Mutex
	b  Binding
}

// NewNode creates a detached node.
func NewNode(props Bag) Node {
	if props == nil {
		props = Bag{}
	}
	return Node{id: NewID(), props: props, link: &link{}}
}

func (n *Node) ID() ID          { return n.id }
func (n *Node) Properties() Bag { return n.props }

func (n *Node) Owner() ID {
	return n.binding().Owner
}

// Bind attaches the node to an owner.
func (n *Node) Bind(b Binding) {
	if n.link == nil {
		n.link = &link{}
	}
	n.link.mu.Lock()
	n.link.b = b
	n.link.mu.Unlock()
}

// Unbind detaches the node from its owner.
func (n *Node) Unbind() {
	n.Bind(Binding{})
}

func (n *Node) binding() Binding {
	if n.link == nil {
		return Binding{}
	}
	n.link.mu.Lock()
	defer n.link.mu.Unlock()
	return n.link.b
}

// Update runs fn holding the owner's guard. Element state read by the
// owner while rendering must only change inside Update.
func (n *Node) Update(fn func()) {
	if g := n.binding().Guard; g != nil {
		g.Lock()
		defer g.Unlock()
	}
	fn()
}

// Set writes a property and reports exactly one change.
func (n *Node) Set(path string, v any) {
	n.Update(func() { n.props.Set(path, v) })
	if fn := n.binding().OnChange; fn != nil {
		fn(path, v)
	}
}

// SetFilter installs a post-resolution filter for path.
func (n *Node) SetFilter(path string, f Filter) {
	n.Update(func() {
		if n.filters == nil {
			n.filters = make(map[string]Filter)
		}
		n.filters[path] = f
	})
}

func (n *Node) PropertyFilter(path string) Filter {
	return n.filters[path]
}
