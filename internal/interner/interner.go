// Package interner implements component B: the bidirectional mapping
// between (namespace,title) keys and dense PageIDs, per spec.md §4.2.
package interner

import (
	"io"

	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/sqldump"
	"github.com/wikihop/wikihop/internal/store"
	"github.com/wikihop/wikihop/internal/wikierr"
)

// PageTable is the name of the dump table this package consumes.
const PageTable = "page"

// Column indices into a `page` dump tuple, following
// https://www.mediawiki.org/wiki/Manual:Page_table. Columns beyond
// colIsRedirect (page_is_new, page_random, ...) are not needed here.
const (
	colPageID     = 0
	colNamespace  = 1
	colTitle      = 2
	colIsRedirect = 3
	minColumns    = 4
)

// Interner is the in-memory build-time side of component B. It also
// serves as the fast lookup table the redirect resolver (C) and graph
// builder (D) consult while a build is in progress, the role the
// teacher's `titler` map plays in build.go.
type Interner struct {
	allowed map[model.Namespace]bool
	byKey   map[model.Key]model.PageID
	isRedir map[model.PageID]bool
	maxID   model.PageID
}

// New creates an interner. Namespace 0 is always accepted; extraNamespaces
// lets the caller widen the set to whatever namespaces appear as redirect
// targets, per spec.md §4.2's "default {0}, plus whichever namespaces
// appear as redirect targets" rule.
func New(extraNamespaces ...model.Namespace) *Interner {
	allowed := map[model.Namespace]bool{model.MainNamespace: true}
	for _, ns := range extraNamespaces {
		allowed[ns] = true
	}
	return &Interner{
		allowed: allowed,
		byKey:   make(map[model.Key]model.PageID),
		isRedir: make(map[model.PageID]bool),
	}
}

// Ingest streams every row of the `page` dump. Rows outside the accepted
// namespace set are skipped. A conflicting (namespace,title) with a
// different page_id is resolved by letting the later row win, per
// spec.md §4.2's documented idempotence policy.
func (in *Interner) Ingest(r *sqldump.Reader, stats *model.BuildStats) error {
	for {
		tuple, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(tuple) < minColumns {
			return &wikierr.SchemaMismatch{Table: PageTable, Expected: minColumns, Got: len(tuple)}
		}

		ns := model.Namespace(tuple[colNamespace].Int)
		if !in.allowed[ns] {
			continue
		}

		id := model.PageID(tuple[colPageID].Int)
		title := append([]byte(nil), tuple[colTitle].Str...)
		isRedir := tuple[colIsRedirect].Int != 0

		in.byKey[model.Key{Namespace: ns, Title: string(title)}] = id
		in.isRedir[id] = isRedir
		if id > in.maxID {
			in.maxID = id
		}
		stats.PagesIngested++
	}
}

// Lookup resolves a (namespace,title) key to its page id.
func (in *Interner) Lookup(ns model.Namespace, title []byte) (model.PageID, bool) {
	id, ok := in.byKey[model.Key{Namespace: ns, Title: string(title)}]
	return id, ok
}

// IsRedirect reports whether a page id is marked is_redirect in the page
// dump.
func (in *Interner) IsRedirect(id model.PageID) bool {
	return in.isRedir[id]
}

// MaxID returns the largest page id observed, which the build records in
// the index metadata as max_page_id.
func (in *Interner) MaxID() model.PageID {
	return in.maxID
}

// Len reports how many (namespace,title) keys were accepted.
func (in *Interner) Len() int {
	return len(in.byKey)
}

// Persist flushes both directions of the mapping to the embedded store,
// committing a batch every 50,000 writes, per spec.md §6's `I:`/`N:` key
// layout.
func (in *Interner) Persist(s *store.Store) error {
	batch := s.NewBatch()
	for key, id := range in.byKey {
		title := []byte(key.Title)
		if err := batch.PutForward(key.Namespace, title, id); err != nil {
			return err
		}
		if err := batch.PutReverse(id, key.Namespace, title); err != nil {
			return err
		}
		if batch.Len() >= 50_000 {
			if err := batch.Commit(); err != nil {
				return err
			}
			batch = s.NewBatch()
		}
	}
	return batch.Commit()
}
