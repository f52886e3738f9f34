// Package store persists interner, redirect and graph state in an
// embedded ordered key-value store, per spec.md §6. It uses
// github.com/cockroachdb/pebble for the store itself — an LSM-tree KV
// engine with the byte-ordered keyspace and prefix-iteration the spec's
// key layout assumes — and never reaches into pebble's internal
// SSTable/compaction mechanics, which spec.md §1 explicitly keeps out of
// scope.
package store

import (
	"github.com/cockroachdb/pebble"

	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/wikierr"
)

// Store wraps a pebble database holding one index's worth of interner,
// redirect and graph state.
type Store struct {
	db *pebble.DB
}

// OpenForBuild opens (creating if necessary) a store directory for
// exclusive write access during indexing, per spec.md §5's "opened for
// exclusive write during indexing" resource rule. cacheBytes sizes
// pebble's block cache; 0 leaves pebble's own default in place. The
// caller derives cacheBytes from a percentage-of-system-memory budget
// the way the teacher's --memory build flag did, see cmd/wikihop.
func OpenForBuild(dir string, cacheBytes int64) (*Store, error) {
	opts := &pebble.Options{}
	if cacheBytes > 0 {
		opts.Cache = pebble.NewCache(cacheBytes)
		defer opts.Cache.Unref()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenForQuery opens a store directory read-only, and fails loudly
// (wikierr.ErrIndexIncomplete) if the build_complete sentinel is absent —
// spec.md §3's "crash-safe at statement boundaries" / §7 class 7 rule.
func OpenForQuery(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	complete, err := s.BuildComplete()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !complete {
		db.Close()
		return nil, wikierr.ErrIndexIncomplete
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- interner (forward/reverse) ---

func (s *Store) PutForward(ns model.Namespace, title []byte, id model.PageID) error {
	return s.db.Set(forwardKey(ns, title), encodePageID(id), pebble.NoSync)
}

func (s *Store) PutReverse(id model.PageID, ns model.Namespace, title []byte) error {
	return s.db.Set(reverseKey(id), encodeReverseValue(ns, title), pebble.NoSync)
}

// LookupForward returns the page id for (namespace,title), and whether it
// was found.
func (s *Store) LookupForward(ns model.Namespace, title []byte) (model.PageID, bool, error) {
	v, closer, err := s.db.Get(forwardKey(ns, title))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id := decodePageID(v)
	closer.Close()
	return id, true, nil
}

// LookupReverse returns the (namespace,title) for a page id.
func (s *Store) LookupReverse(id model.PageID) (model.Namespace, []byte, bool, error) {
	v, closer, err := s.db.Get(reverseKey(id))
	if err == pebble.ErrNotFound {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	ns, title := decodeReverseValue(v)
	closer.Close()
	return ns, title, true, nil
}

// --- redirects ---

func (s *Store) PutRedirect(from, to model.PageID) error {
	return s.db.Set(redirectKey(from), encodePageID(to), pebble.NoSync)
}

// LookupRedirect returns the terminal page a redirect points to, and
// whether `id` is a redirect at all. A single lookup never requires
// re-walking a chain, because chains are fully collapsed at build time
// (spec.md §4.3).
func (s *Store) LookupRedirect(id model.PageID) (model.PageID, bool, error) {
	v, closer, err := s.db.Get(redirectKey(id))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	to := decodePageID(v)
	closer.Close()
	return to, true, nil
}

// --- graph ---

func (s *Store) PutAdjacency(id model.PageID, neighbors []model.PageID) error {
	return s.db.Set(graphKey(id), encodeAdjacency(neighbors), pebble.NoSync)
}

func (s *Store) LookupAdjacency(id model.PageID) ([]model.PageID, error) {
	v, closer, err := s.db.Get(graphKey(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := decodeAdjacency(v)
	closer.Close()
	return out, nil
}

func (s *Store) PutReverseAdjacency(id model.PageID, neighbors []model.PageID) error {
	return s.db.Set(reverseGraphKey(id), encodeAdjacency(neighbors), pebble.NoSync)
}

func (s *Store) LookupReverseAdjacency(id model.PageID) ([]model.PageID, error) {
	v, closer, err := s.db.Get(reverseGraphKey(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := decodeAdjacency(v)
	closer.Close()
	return out, nil
}

// --- metadata ---

func (s *Store) SetMaxPageID(id model.PageID) error {
	return s.db.Set(metaKey(metaMaxPageID), encodePageID(id), pebble.Sync)
}

func (s *Store) MaxPageID() (model.PageID, error) {
	v, closer, err := s.db.Get(metaKey(metaMaxPageID))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return decodePageID(v), nil
}

func (s *Store) SetString(name, value string) error {
	return s.db.Set(metaKey(name), []byte(value), pebble.Sync)
}

func (s *Store) GetString(name string) (string, bool, error) {
	v, closer, err := s.db.Get(metaKey(name))
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer closer.Close()
	return string(v), true, nil
}

func (s *Store) SetDumpDate(date string) error { return s.SetString(metaDumpDate, date) }
func (s *Store) SetLangCode(code string) error  { return s.SetString(metaLangCode, code) }

// MarkBuildComplete writes the build_complete sentinel as the last write
// of an index build, per spec.md §5's crash-safety rule: its presence is
// the only thing that distinguishes a finished index from a partial one.
func (s *Store) MarkBuildComplete() error {
	return s.db.Set(metaKey(metaBuildComplete), []byte{1}, pebble.Sync)
}

func (s *Store) BuildComplete() (bool, error) {
	v, closer, err := s.db.Get(metaKey(metaBuildComplete))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()
	return len(v) == 1 && v[0] == 1, nil
}

// Batch buffers writes for a single atomic commit, used by the graph
// builder to flush adjacency lists in bulk without per-key fsyncs.
type Batch struct {
	b *pebble.Batch
}

func (s *Store) NewBatch() *Batch {
	return &Batch{b: s.db.NewBatch()}
}

func (bt *Batch) PutAdjacency(id model.PageID, neighbors []model.PageID) error {
	return bt.b.Set(graphKey(id), encodeAdjacency(neighbors), nil)
}

func (bt *Batch) PutReverseAdjacency(id model.PageID, neighbors []model.PageID) error {
	return bt.b.Set(reverseGraphKey(id), encodeAdjacency(neighbors), nil)
}

func (bt *Batch) PutForward(ns model.Namespace, title []byte, id model.PageID) error {
	return bt.b.Set(forwardKey(ns, title), encodePageID(id), nil)
}

func (bt *Batch) PutReverse(id model.PageID, ns model.Namespace, title []byte) error {
	return bt.b.Set(reverseKey(id), encodeReverseValue(ns, title), nil)
}

func (bt *Batch) PutRedirect(from, to model.PageID) error {
	return bt.b.Set(redirectKey(from), encodePageID(to), nil)
}

func (bt *Batch) Len() int { return int(bt.b.Count()) }

func (bt *Batch) Commit() error {
	return bt.b.Commit(pebble.NoSync)
}
