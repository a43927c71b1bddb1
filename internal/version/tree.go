package version

import (
	"fmt"
	"slices"
	"time"

	"ttfs/internal/errors"

	"go.uber.org/zap"
)

// RootMessage annotates the snapshot every file starts from.
const RootMessage = "Initial snapshot"

// Blobs holds node content. Store takes a reference on the content, Delete
// gives one back.
type Blobs interface {
	Store(name string, content []byte) (string, error)
	Get(hash string) ([]byte, error)
	Delete(hash string) error
}

// Tree is the revision tree of one file. Nodes live in an arena indexed by
// id, so ids are dense and the arena doubles as the id index.
//
// Every method checks its preconditions and does its fallible blob work
// before touching the tree, so a failed call leaves the tree as it was.
type Tree struct {
	name         string
	nodes        []*Node
	active       int
	lastModified time.Time
	blobs        Blobs
	logger       *zap.Logger
}

// New creates a tree whose root is an empty, already frozen snapshot.
func New(name string, blobs Blobs, now time.Time, logger *zap.Logger) (*Tree, error) {
	hash, err := blobs.Store(name, nil)
	if err != nil {
		return nil, errors.Internal("storing root content", err)
	}

	root := &Node{
		ID:         0,
		Hash:       hash,
		Message:    RootMessage,
		CreatedAt:  now,
		SnapshotAt: now,
		Parent:     NoParent,
	}

	return &Tree{
		name:         name,
		nodes:        []*Node{root},
		active:       root.ID,
		lastModified: now,
		blobs:        blobs,
		logger:       logger.With(zap.String("file", name)),
	}, nil
}

func (t *Tree) Name() string {
	return t.name
}

// Revisions is the number of nodes ever created.
func (t *Tree) Revisions() int {
	return len(t.nodes)
}

func (t *Tree) LastModified() time.Time {
	return t.lastModified
}

// Active returns a copy of the active node.
func (t *Tree) Active() Node {
	return t.copyOf(t.nodes[t.active])
}

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id int) (Node, bool) {
	if id < 0 || id >= len(t.nodes) {
		return Node{}, false
	}
	return t.copyOf(t.nodes[id]), true
}

// Content returns the content of the active node.
func (t *Tree) Content() (string, error) {
	return t.content(t.nodes[t.active])
}

// Write edits the active node in place while it is mutable. Once it is
// frozen the edit goes to a new child, which becomes active. It reports
// whether a node was created.
func (t *Tree) Write(mode Mode, payload string, now time.Time) (bool, error) {
	if mode != Append && mode != Replace {
		return false, errors.ValidationError(fmt.Sprintf("unknown write mode %d", mode), nil)
	}

	cur := t.nodes[t.active]
	next := payload
	if mode == Append {
		content, err := t.content(cur)
		if err != nil {
			return false, err
		}
		next = content + payload
	}

	hash, err := t.blobs.Store(t.name, []byte(next))
	if err != nil {
		return false, errors.Internal("storing content", err)
	}

	created := cur.Frozen()
	if created {
		child := &Node{
			ID:        len(t.nodes),
			Hash:      hash,
			CreatedAt: now,
			Parent:    cur.ID,
		}
		t.nodes = append(t.nodes, child)
		cur.Children = append(cur.Children, child.ID)
		t.active = child.ID
		t.logger.Debug("revision created",
			zap.Int("id", child.ID),
			zap.Int("parent", cur.ID),
			zap.Stringer("mode", mode),
		)
	} else {
		old := cur.Hash
		cur.Hash = hash
		t.release(old)
	}

	t.lastModified = now
	return created, nil
}

// Snapshot freezes the active node.
func (t *Tree) Snapshot(message string, now time.Time) error {
	cur := t.nodes[t.active]
	if cur.Frozen() {
		return errors.AlreadyFrozen()
	}

	cur.SnapshotAt = now
	cur.Message = message
	t.lastModified = now
	return nil
}

// Rollback points the active node at target. Any node may be targeted, not
// only ancestors of the active one.
func (t *Tree) Rollback(target Target, now time.Time) error {
	next := t.nodes[t.active].Parent
	if id, ok := target.ID(); ok {
		if id < 0 || id >= len(t.nodes) {
			return errors.VersionNotFound(id)
		}
		next = id
	} else if next == NoParent {
		return errors.NoParent()
	}

	t.active = next
	t.lastModified = now
	return nil
}

// History lists the frozen nodes on the path from the root to the active
// node, root first.
func (t *Tree) History() []Entry {
	var entries []Entry
	for id := t.active; id != NoParent; id = t.nodes[id].Parent {
		n := t.nodes[id]
		if !n.Frozen() {
			continue
		}
		entries = append(entries, Entry{
			ID:         n.ID,
			SnapshotAt: n.SnapshotAt,
			Message:    n.Message,
		})
	}
	slices.Reverse(entries)
	return entries
}

func (t *Tree) content(n *Node) (string, error) {
	data, err := t.blobs.Get(n.Hash)
	if err != nil {
		return "", errors.Internal(fmt.Sprintf("reading version %d", n.ID), err)
	}
	return string(data), nil
}

// release drops the reference on content that no node points at anymore.
// The edit it belongs to has already been applied, so failures are only
// logged.
func (t *Tree) release(hash string) {
	if err := t.blobs.Delete(hash); err != nil {
		t.logger.Warn("releasing old content", zap.String("hash", hash), zap.Error(err))
	}
}

func (t *Tree) copyOf(n *Node) Node {
	c := *n
	c.Children = slices.Clone(n.Children)
	return c
}
