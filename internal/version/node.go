package version

import "time"

// NoParent is the Parent of a tree's root.
const NoParent = -1

// Node is one revision of a file. A node is mutable until SnapshotAt is set,
// after which its content and message never change.
type Node struct {
	ID         int       `json:"id"`
	Hash       string    `json:"hash"` // content, held in the Blobs store
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	SnapshotAt time.Time `json:"snapshot_at,omitempty"`
	Parent     int       `json:"parent"`
	Children   []int     `json:"children,omitempty"`
}

func (n *Node) Frozen() bool {
	return !n.SnapshotAt.IsZero()
}

func (n *Node) IsRoot() bool {
	return n.Parent == NoParent
}

// Entry is one line of a file's history.
type Entry struct {
	ID         int       `json:"id"`
	SnapshotAt time.Time `json:"snapshot_at"`
	Message    string    `json:"message"`
}

// Mode selects how Write combines the payload with the current content.
type Mode int

const (
	Append Mode = iota
	Replace
)

func (m Mode) String() string {
	switch m {
	case Append:
		return "append"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Target is where Rollback moves the active node: the parent of the current
// one, or an explicit id.
type Target struct {
	id       int
	explicit bool
}

// Parent targets the parent of the active node.
func Parent() Target {
	return Target{}
}

// At targets the node with the given id.
func At(id int) Target {
	return Target{id: id, explicit: true}
}

// ID returns the explicit id and whether there is one.
func (t Target) ID() (int, bool) {
	return t.id, t.explicit
}
