package filestore

import (
	"sort"
	"sync"
	"time"

	"ttfs/internal/analytics"
	"ttfs/internal/errors"
	"ttfs/internal/version"

	"go.uber.org/zap"
)

// Clock abstracts time retrieval so tests control every timestamp.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// RecentFile is a file ranked by when it last changed.
type RecentFile struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
}

// SizedFile is a file ranked by how many revisions it has.
type SizedFile struct {
	Name      string `json:"name"`
	Revisions int    `json:"revisions"`
}

// Stats summarises the store.
type Stats struct {
	Files        int `json:"files"`
	Revisions    int `json:"revisions"`
	Observations int `json:"observations"`
}

// Store maps filenames to version trees and keeps the recency and size
// rankings current. All operations are serialised.
type Store struct {
	mu      sync.Mutex
	files   map[string]*version.Tree
	recent  *analytics.Aggregator
	biggest *analytics.Aggregator
	blobs   version.Blobs
	clock   Clock
	logger  *zap.Logger
}

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(blobs version.Blobs, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		files:   make(map[string]*version.Tree),
		recent:  analytics.NewAggregator("recent"),
		biggest: analytics.NewAggregator("biggest"),
		blobs:   blobs,
		clock:   RealClock{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreateFile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; ok {
		return errors.AlreadyExists(name)
	}

	tree, err := version.New(name, s.blobs, s.clock.Now(), s.logger)
	if err != nil {
		return err
	}
	s.files[name] = tree
	s.report(tree)

	s.logger.Info("file created", zap.String("file", name))
	return nil
}

func (s *Store) ReadFile(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.get(name)
	if err != nil {
		return "", err
	}
	return tree.Content()
}

// Insert appends text to the file.
func (s *Store) Insert(name, text string) error {
	return s.write(name, version.Append, text)
}

// Update replaces the file's content with text.
func (s *Store) Update(name, text string) error {
	return s.write(name, version.Replace, text)
}

func (s *Store) write(name string, mode version.Mode, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.get(name)
	if err != nil {
		return err
	}

	created, err := tree.Write(mode, text, s.clock.Now())
	if err != nil {
		return err
	}
	s.report(tree)

	s.logger.Debug("file written",
		zap.String("file", name),
		zap.Stringer("mode", mode),
		zap.Bool("new_revision", created),
		zap.Int("active", tree.Active().ID),
	)
	return nil
}

func (s *Store) Snapshot(name, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.get(name)
	if err != nil {
		return err
	}
	if err := tree.Snapshot(message, s.clock.Now()); err != nil {
		return err
	}
	s.report(tree)

	s.logger.Info("snapshot taken",
		zap.String("file", name),
		zap.Int("id", tree.Active().ID),
		zap.String("message", message),
	)
	return nil
}

func (s *Store) Rollback(name string, target version.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.get(name)
	if err != nil {
		return err
	}
	if err := tree.Rollback(target, s.clock.Now()); err != nil {
		return err
	}
	s.report(tree)

	s.logger.Info("rolled back", zap.String("file", name), zap.Int("active", tree.Active().ID))
	return nil
}

func (s *Store) History(name string) ([]version.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return tree.History(), nil
}

// Active returns a copy of the file's active node.
func (s *Store) Active(name string) (version.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.get(name)
	if err != nil {
		return version.Node{}, err
	}
	return tree.Active(), nil
}

// TopRecent returns up to count files, most recently modified first.
func (s *Store) TopRecent(count int) []RecentFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.recent.TopK(count)
	out := make([]RecentFile, len(top))
	for i, o := range top {
		out[i] = RecentFile{Name: o.Key, ModifiedAt: time.Unix(0, o.Score)}
	}
	return out
}

// TopBySize returns up to count files, most revisions first.
func (s *Store) TopBySize(count int) []SizedFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.biggest.TopK(count)
	out := make([]SizedFile, len(top))
	for i, o := range top {
		out[i] = SizedFile{Name: o.Key, Revisions: int(o.Score)}
	}
	return out
}

// Files lists every filename in lexical order.
func (s *Store) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Files:        len(s.files),
		Observations: s.recent.Observations() + s.biggest.Observations(),
	}
	for _, tree := range s.files {
		st.Revisions += tree.Revisions()
	}
	return st
}

func (s *Store) get(name string) (*version.Tree, error) {
	tree, ok := s.files[name]
	if !ok {
		return nil, errors.NotFound(name)
	}
	return tree, nil
}

// report feeds the tree's current state to both rankings.
func (s *Store) report(tree *version.Tree) {
	s.recent.Observe(tree.Name(), tree.LastModified().UnixNano())
	s.biggest.Observe(tree.Name(), int64(tree.Revisions()))
}
