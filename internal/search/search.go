// Package search implements component E: resolving query endpoints
// through the interner and redirect map, then finding a shortest
// link-click path between them, per spec.md §4.5.
package search

import (
	"context"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/wikierr"
)

// GraphReader is the read-only subset of the store this package needs,
// kept as an interface so the search algorithm can be tested against a
// plain in-memory graph instead of an open pebble database.
type GraphReader interface {
	LookupAdjacency(id model.PageID) ([]model.PageID, error)
	LookupReverseAdjacency(id model.PageID) ([]model.PageID, error)
}

// EndpointResolver looks up a (namespace,title) query endpoint and
// follows it through a redirect if necessary.
type EndpointResolver interface {
	LookupForward(ns model.Namespace, title []byte) (model.PageID, bool, error)
	LookupRedirect(id model.PageID) (model.PageID, bool, error)
}

// ResolveEndpoint maps a query title to the page id the search should
// actually start or end at: the page itself, or the terminal page of its
// redirect chain if it is a redirect, per the teacher's
// followRedirQuery-before-search step in search.go's ShortestPaths.
func ResolveEndpoint(s EndpointResolver, ns model.Namespace, title []byte) (model.PageID, error) {
	id, ok, err := s.LookupForward(ns, title)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &wikierr.UnknownTitle{Title: string(title)}
	}
	if to, isRedirect, err := s.LookupRedirect(id); err != nil {
		return 0, err
	} else if isRedirect {
		return to, nil
	}
	return id, nil
}

// ShortestPath runs bidirectional BFS between two page ids already
// resolved past any redirect, and returns the sequence of page ids from
// source to target inclusive. The two sides expand in lockstep, one full
// level at a time, alternating on whichever side's depth is currently
// behind (ties go to the forward side) — not on which frontier happens to
// be smaller. Ties among equal-length paths are broken deterministically:
// within a level, frontier pages are visited in ascending PageId order and
// each page's neighbors are iterated in the ascending order the CSR
// adjacency lists already guarantee; among all candidate meeting points
// that achieve the shortest combined length, the smallest PageId is
// chosen.
//
// A meeting candidate found the first round either side overlaps the
// other is not necessarily optimal, so expansion keeps going, tracking the
// best (shortest) candidate seen so far, until the sum of the two sides'
// depths can no longer beat it — the standard stopping condition for
// meet-in-the-middle BFS. That bound is only valid because the two depths
// are kept within one level of each other: alternating on frontier size
// instead (expand whichever side currently has fewer nodes queued) can
// leave one side's depth arbitrarily far behind — a high out-degree
// source paired with a long, narrow path to the target does exactly
// this — at which point the depth-sum bound can trip before the stalled
// side has explored far enough to find the true shortest meeting point.
func ShortestPath(ctx context.Context, g GraphReader, source, target model.PageID) ([]model.PageID, error) {
	if source == target {
		return []model.PageID{source}, nil
	}

	forwardVisited := roaring.New()
	backwardVisited := roaring.New()
	forwardVisited.Add(source)
	backwardVisited.Add(target)

	forwardParent := map[model.PageID]model.PageID{}
	backwardParent := map[model.PageID]model.PageID{}

	forwardDist := map[model.PageID]int{source: 0}
	backwardDist := map[model.PageID]int{target: 0}

	forwardFrontier := []model.PageID{source}
	backwardFrontier := []model.PageID{target}
	forwardDepth, backwardDepth := 0, 0

	const noBest = math.MaxInt32
	best := noBest
	var meet model.PageID

	for len(forwardFrontier) > 0 && len(backwardFrontier) > 0 && forwardDepth+backwardDepth < best {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var (
			next       []model.PageID
			candidates []model.PageID
			err        error
		)
		if forwardDepth <= backwardDepth {
			forwardDepth++
			next, candidates, err = expandLevel(g.LookupAdjacency, forwardFrontier, forwardVisited, backwardVisited, forwardParent, forwardDist, forwardDepth)
			forwardFrontier = next
		} else {
			backwardDepth++
			next, candidates, err = expandLevel(g.LookupReverseAdjacency, backwardFrontier, backwardVisited, forwardVisited, backwardParent, backwardDist, backwardDepth)
			backwardFrontier = next
		}
		if err != nil {
			return nil, err
		}

		for _, v := range candidates {
			total := forwardDist[v] + backwardDist[v]
			if total < best || (total == best && v < meet) {
				best = total
				meet = v
			}
		}
	}

	if best == noBest {
		return nil, &wikierr.NoPath{Source: source, Target: target}
	}
	return reconstructPath(meet, forwardParent, backwardParent), nil
}

// expandLevel advances one BFS level on one side of the search. lookup
// supplies a page's neighbors in the direction this side searches
// (outgoing for the forward side, incoming for the backward side). Newly
// visited nodes are recorded in dist at depth, and any newly visited node
// already present in the other side's visited set is returned as a
// meeting candidate — without judging yet whether it is the cheapest one,
// which only the caller can know by comparing against candidates found on
// other rounds.
func expandLevel(
	lookup func(model.PageID) ([]model.PageID, error),
	frontier []model.PageID,
	visited, otherVisited *roaring.Bitmap,
	parent map[model.PageID]model.PageID,
	dist map[model.PageID]int,
	depth int,
) (next []model.PageID, meetCandidates []model.PageID, err error) {
	ordered := append([]model.PageID(nil), frontier...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, u := range ordered {
		neighbors, err := lookup(u)
		if err != nil {
			return nil, nil, err
		}
		// Stored CSR adjacency is already ascending, but sort
		// defensively so the tie-break holds regardless of the
		// GraphReader implementation under test.
		sorted := append([]model.PageID(nil), neighbors...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, v := range sorted {
			if visited.Contains(v) {
				continue
			}
			visited.Add(v)
			parent[v] = u
			dist[v] = depth
			next = append(next, v)
			if otherVisited.Contains(v) {
				meetCandidates = append(meetCandidates, v)
			}
		}
	}

	return next, meetCandidates, nil
}

// reconstructPath walks forwardParent from meet back to source, and
// backwardParent from meet forward to target, splicing the two halves
// into one source-to-target sequence.
func reconstructPath(meet model.PageID, forwardParent, backwardParent map[model.PageID]model.PageID) []model.PageID {
	head := []model.PageID{}
	for cur := meet; ; {
		head = append(head, cur)
		p, ok := forwardParent[cur]
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(head)-1; i < j; i, j = i+1, j-1 {
		head[i], head[j] = head[j], head[i]
	}

	var tail []model.PageID
	for cur := meet; ; {
		n, ok := backwardParent[cur]
		if !ok {
			break
		}
		tail = append(tail, n)
		cur = n
	}

	return append(head, tail...)
}
