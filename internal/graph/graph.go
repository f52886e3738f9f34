// Package graph implements component D: turning the pagelinks dump into
// a forward adjacency graph keyed by page id, per spec.md §4.4. The
// build pipeline is an external sort rather than an in-memory graph so
// that page counts that don't fit in RAM still produce a correct index,
// grounded on qrank-builder's buildLinks/joinPagelinksByTitle pipeline.
package graph

import (
	"context"
	"io"
	"runtime"

	"github.com/lanrat/extsort"
	"golang.org/x/sync/errgroup"

	"github.com/wikihop/wikihop/internal/interner"
	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/redirect"
	"github.com/wikihop/wikihop/internal/sqldump"
	"github.com/wikihop/wikihop/internal/store"
	"github.com/wikihop/wikihop/internal/wikierr"
)

// PagelinksTable is the name of the dump table this package consumes.
const PagelinksTable = "pagelinks"

// Column indices into a `pagelinks` dump tuple, following the pre-2018
// schema MediaWiki dumps still ship (pl_from, pl_namespace, pl_title),
// the same three columns qrank-builder's readPageLinks looks up by name.
const (
	colFrom      = 0
	colNamespace = 1
	colTitle     = 2
	minColumns   = 3
)

// batchFlushThreshold caps how many pending writes accumulate in a
// store.Batch before it's committed, matching the interner/redirect
// packages' flush size.
const batchFlushThreshold = 50_000

// Build streams the `pagelinks` dump, resolves each row's source page id
// and its (namespace, title) target to their terminal, non-redirect page
// ids — retargeting either side through the redirect map when it names a
// redirect (destination retargeting counted in stats.RetargetedTargetEdges,
// the narrower source-is-itself-a-redirect case in
// stats.RetargetedSourceEdges, per spec.md §4.4 step 3 and §9's open
// question) — drops self-loops and unresolved endpoints, externally sorts
// the surviving edges by (From,To), and writes one CSR adjacency list per
// source page into s. A mirrored external sort over (To,From) also
// produces the incoming-edge lists the bidirectional search needs, the
// same pair of access patterns the teacher's GetLinks(page, outgoing bool)
// exposes over two SQLite tables.
func Build(ctx context.Context, r *sqldump.Reader, in *interner.Interner, rr *redirect.Resolver, s *store.Store, stats *model.BuildStats) error {
	fwdCh := make(chan extsort.SortType, 50_000)
	revCh := make(chan extsort.SortType, 50_000)
	config := extsort.DefaultConfig()
	config.NumWorkers = runtime.NumCPU()
	fwdSorter, fwdOut, fwdErr := extsort.New(fwdCh, edgeFromBytes, edgeLess, config)
	revSorter, revOut, revErr := extsort.New(revCh, edgeFromBytes, edgeLess, config)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(fwdCh)
		defer close(revCh)
		return produceEdges(groupCtx, r, in, rr, stats, fwdCh, revCh)
	})
	group.Go(func() error {
		fwdSorter.Sort(ctx) // intentionally ctx, not groupCtx, per extsort's own usage pattern
		return consumeSortedEdges(groupCtx, fwdOut, s, stats, (*store.Batch).PutAdjacency, true)
	})
	group.Go(func() error {
		revSorter.Sort(ctx)
		return consumeSortedEdges(groupCtx, revOut, s, stats, (*store.Batch).PutReverseAdjacency, false)
	})
	if err := group.Wait(); err != nil {
		return err
	}
	if err := <-fwdErr; err != nil {
		return err
	}
	return <-revErr
}

func produceEdges(ctx context.Context, r *sqldump.Reader, in *interner.Interner, rr *redirect.Resolver, stats *model.BuildStats, fwdOut, revOut chan<- extsort.SortType) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tuple, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(tuple) < minColumns {
			return &wikierr.SchemaMismatch{Table: PagelinksTable, Expected: minColumns, Got: len(tuple)}
		}

		rawFrom := model.PageID(tuple[colFrom].Int)
		ns := model.Namespace(tuple[colNamespace].Int)
		title := tuple[colTitle].Str

		from, ok := resolveSource(in, rr, rawFrom, stats)
		if !ok {
			stats.DanglingLinks++
			continue
		}

		to, ok := resolveTarget(in, rr, ns, title, stats)
		if !ok {
			stats.DanglingLinks++
			continue
		}
		if to == from {
			stats.SelfLoopsDropped++
			continue
		}

		select {
		case fwdOut <- edge{From: from, To: to}:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case revOut <- edge{From: to, To: from}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// resolveSource retargets a pagelinks row's source page to its terminal,
// non-redirect page if pl_from itself names a redirect, per spec.md §4.4
// step 3 and §9's open question. Most rows' source is already an
// ordinary article, so this is a no-op in the common case.
func resolveSource(in *interner.Interner, rr *redirect.Resolver, from model.PageID, stats *model.BuildStats) (model.PageID, bool) {
	if !in.IsRedirect(from) {
		return from, true
	}
	final, ok := rr.Resolve(from)
	if !ok {
		return 0, false
	}
	stats.RetargetedSourceEdges++
	return final, true
}

// resolveTarget resolves a pagelinks (namespace,title) target through
// the interner and, if the target itself is a redirect, follows the
// materialized redirect map once to its terminal page.
func resolveTarget(in *interner.Interner, rr *redirect.Resolver, ns model.Namespace, title []byte, stats *model.BuildStats) (model.PageID, bool) {
	target, ok := in.Lookup(ns, title)
	if !ok {
		return 0, false
	}
	if !in.IsRedirect(target) {
		return target, true
	}
	final, ok := rr.Resolve(target)
	if !ok {
		return 0, false
	}
	stats.RetargetedTargetEdges++
	return final, true
}

// consumeSortedEdges drains the externally sorted edge stream, which
// arrives grouped by From and ascending by To, deduplicates consecutive
// repeats, and flushes one adjacency list per source page via put (either
// store.Batch.PutAdjacency for the outgoing direction, or
// store.Batch.PutReverseAdjacency for the incoming mirror). Only the
// outgoing pass counts into stats.EdgesEmitted, to avoid double-counting.
func consumeSortedEdges(ctx context.Context, in <-chan extsort.SortType, s *store.Store, stats *model.BuildStats, put func(*store.Batch, model.PageID, []model.PageID) error, countEdges bool) error {
	batch := s.NewBatch()

	var (
		haveGroup    bool
		currentFrom  model.PageID
		neighbors    []model.PageID
		lastNeighbor model.PageID
	)

	flushGroup := func() error {
		if !haveGroup || len(neighbors) == 0 {
			return nil
		}
		if err := put(batch, currentFrom, neighbors); err != nil {
			return err
		}
		if countEdges {
			stats.EdgesEmitted += len(neighbors)
		}
		if batch.Len() >= batchFlushThreshold {
			if err := batch.Commit(); err != nil {
				return err
			}
			batch = s.NewBatch()
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, more := <-in:
			if !more {
				if err := flushGroup(); err != nil {
					return err
				}
				return batch.Commit()
			}
			e := item.(edge)
			if !haveGroup || e.From != currentFrom {
				if err := flushGroup(); err != nil {
					return err
				}
				haveGroup = true
				currentFrom = e.From
				neighbors = neighbors[:0]
				lastNeighbor = 0
			}
			if len(neighbors) > 0 && e.To == lastNeighbor {
				continue
			}
			neighbors = append(neighbors, e.To)
			lastNeighbor = e.To
		}
	}
}
