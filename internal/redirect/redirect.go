// Package redirect implements component C: collapsing the `redirect`
// table into a materialized PageId -> PageId map that always points to a
// terminal (non-redirect) page, per spec.md §4.3.
package redirect

import (
	"io"

	"github.com/wikihop/wikihop/internal/interner"
	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/sqldump"
	"github.com/wikihop/wikihop/internal/store"
	"github.com/wikihop/wikihop/internal/wikierr"
)

// RedirectTable is the name of the dump table this package consumes.
const RedirectTable = "redirect"

// Column indices into a `redirect` dump tuple, following
// https://www.mediawiki.org/wiki/Manual:Redirect_table.
const (
	colFrom      = 0
	colNamespace = 1
	colTitle     = 2
	minColumns   = 3
)

// Resolver holds the materialized redirect map built by Build.
type Resolver struct {
	resolved map[model.PageID]model.PageID
}

// TargetNamespaces collects the distinct target namespaces seen across
// the raw redirect rows, before resolution. The interner needs these up
// front (spec.md §4.2's "plus whichever namespaces appear as redirect
// targets" rule), so dump parsing of `page` and `redirect` are meant to
// be interleaved by the caller: a first pass over `redirect` gathers
// namespaces, then the interner is built, then Build resolves.
func TargetNamespaces(r *sqldump.Reader) (map[model.Namespace]bool, error) {
	seen := map[model.Namespace]bool{}
	for {
		tuple, err := r.Next()
		if err == io.EOF {
			return seen, nil
		}
		if err != nil {
			return nil, err
		}
		if len(tuple) < minColumns {
			return nil, &wikierr.SchemaMismatch{Table: RedirectTable, Expected: minColumns, Got: len(tuple)}
		}
		seen[model.Namespace(tuple[colNamespace].Int)] = true
	}
}

// Build streams the `redirect` dump, resolves each row's (namespace,
// title) target through in, collapses chains to their terminal page, and
// breaks cycles by dropping every page on the cycle (spec.md §4.3 point
// 3). Dangling and cyclic redirects are counted into stats, never
// returned as errors — they are spec.md §7's recoverable classes 5 and 6.
func Build(r *sqldump.Reader, in *interner.Interner, stats *model.BuildStats) (*Resolver, error) {
	raw := make(map[model.PageID]model.PageID)
	for {
		tuple, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(tuple) < minColumns {
			return nil, &wikierr.SchemaMismatch{Table: RedirectTable, Expected: minColumns, Got: len(tuple)}
		}

		from := model.PageID(tuple[colFrom].Int)
		ns := model.Namespace(tuple[colNamespace].Int)
		title := tuple[colTitle].Str

		target, ok := in.Lookup(ns, title)
		if !ok {
			stats.DanglingRedirects++
			continue
		}
		raw[from] = target
	}

	res := &Resolver{resolved: make(map[model.PageID]model.PageID, len(raw))}
	dropped := make(map[model.PageID]bool)

	var resolveFrom func(start model.PageID) (model.PageID, bool)
	resolveFrom = func(start model.PageID) (model.PageID, bool) {
		if t, ok := res.resolved[start]; ok {
			return t, true
		}
		if dropped[start] {
			return 0, false
		}

		path := []model.PageID{start}
		onPath := map[model.PageID]int{start: 0}
		cur := start
		for {
			target := raw[cur]

			if _, cyclic := onPath[target]; cyclic {
				for _, n := range path {
					dropped[n] = true
				}
				stats.RedirectCyclesBroken++
				return 0, false
			}
			if term, already := res.resolved[target]; already {
				for _, n := range path {
					res.resolved[n] = term
				}
				return term, true
			}
			if dropped[target] {
				for _, n := range path {
					dropped[n] = true
				}
				return 0, false
			}
			if _, isRedirectSource := raw[target]; !isRedirectSource {
				for _, n := range path {
					res.resolved[n] = target
				}
				return target, true
			}

			path = append(path, target)
			onPath[target] = len(path) - 1
			cur = target
		}
	}

	for from := range raw {
		resolveFrom(from)
	}

	return res, nil
}

// Resolve returns the terminal page a redirect source resolves to, and
// whether `id` resolved successfully at all. A dropped (dangling or
// cyclic) redirect source returns false.
func (r *Resolver) Resolve(id model.PageID) (model.PageID, bool) {
	to, ok := r.resolved[id]
	return to, ok
}

// Len reports the number of successfully resolved redirects.
func (r *Resolver) Len() int {
	return len(r.resolved)
}

// All iterates every successfully resolved redirect.
func (r *Resolver) All(fn func(from, to model.PageID)) {
	for from, to := range r.resolved {
		fn(from, to)
	}
}

// Persist flushes the materialized redirect map to the embedded store
// under the `R:` keyspace (see DESIGN.md for why this supplements the
// `I:`/`N:`/`G:`/`M:` keys spec.md §6 names: query-time endpoint
// resolution needs it too, not just the graph builder).
func (r *Resolver) Persist(s *store.Store) error {
	batch := s.NewBatch()
	for from, to := range r.resolved {
		if err := batch.PutRedirect(from, to); err != nil {
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
