// Package buildpipeline wires the index-build stages together: ingest
// pages, resolve redirects, build the bidirectional link graph, and
// record metadata, mirroring the overall stage order of the teacher's
// buildDatabase in build.go (fetch dumps, parse into a fresh database,
// rename into place) adapted to this module's in-process pipeline of
// sqldump readers feeding the interner/redirect/graph packages directly
// instead of shelling out to a MySQL import.
package buildpipeline

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wikihop/wikihop/internal/graph"
	"github.com/wikihop/wikihop/internal/interner"
	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/progress"
	"github.com/wikihop/wikihop/internal/redirect"
	"github.com/wikihop/wikihop/internal/sqldump"
	"github.com/wikihop/wikihop/internal/store"
)

const stageCount = 6

// Options configures one index build from already-downloaded dump files.
type Options struct {
	PageDumpPath      string
	RedirectDumpPath  string
	PagelinksDumpPath string
	DumpDate          string
	LangCode          string
	IndexDir          string
	CacheBytes        int64
}

// Build runs the full ingest -> redirect resolution -> graph
// construction -> finalize pipeline, reporting stage transitions and
// final counters to out.
func Build(ctx context.Context, opts Options, out io.Writer) (*model.BuildStats, error) {
	p := progress.New(out, stageCount)
	stats := &model.BuildStats{}

	s, err := store.OpenForBuild(opts.IndexDir, opts.CacheBytes)
	if err != nil {
		return nil, fmt.Errorf("opening index directory: %w", err)
	}
	defer s.Close()

	p.Stage("scanning redirect namespaces")
	var extraNamespaces []model.Namespace
	if err := withGzipDump(opts.RedirectDumpPath, redirect.RedirectTable, func(r *sqldump.Reader) error {
		seen, err := redirect.TargetNamespaces(r)
		if err != nil {
			return err
		}
		for ns := range seen {
			if ns != model.MainNamespace {
				extraNamespaces = append(extraNamespaces, ns)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scanning redirect namespaces: %w", err)
	}

	p.Stage("ingesting pages")
	in := interner.New(extraNamespaces...)
	if err := withGzipDump(opts.PageDumpPath, interner.PageTable, func(r *sqldump.Reader) error {
		return in.Ingest(r, stats)
	}); err != nil {
		return nil, fmt.Errorf("ingesting pages: %w", err)
	}
	if err := in.Persist(s); err != nil {
		return nil, fmt.Errorf("persisting page interner: %w", err)
	}
	if err := s.SetMaxPageID(in.MaxID()); err != nil {
		return nil, fmt.Errorf("recording max page id: %w", err)
	}

	p.Stage("resolving redirects")
	var resolver *redirect.Resolver
	if err := withGzipDump(opts.RedirectDumpPath, redirect.RedirectTable, func(r *sqldump.Reader) error {
		built, err := redirect.Build(r, in, stats)
		if err != nil {
			return err
		}
		resolver = built
		return nil
	}); err != nil {
		return nil, fmt.Errorf("resolving redirects: %w", err)
	}
	if err := resolver.Persist(s); err != nil {
		return nil, fmt.Errorf("persisting redirects: %w", err)
	}

	p.Stage("building link graph")
	if err := withGzipDump(opts.PagelinksDumpPath, graph.PagelinksTable, func(r *sqldump.Reader) error {
		return graph.Build(ctx, r, in, resolver, s, stats)
	}); err != nil {
		return nil, fmt.Errorf("building link graph: %w", err)
	}

	p.Stage("writing metadata")
	if err := s.SetDumpDate(opts.DumpDate); err != nil {
		return nil, fmt.Errorf("recording dump date: %w", err)
	}
	if err := s.SetLangCode(opts.LangCode); err != nil {
		return nil, fmt.Errorf("recording language code: %w", err)
	}

	p.Stage("finalizing")
	if err := s.MarkBuildComplete(); err != nil {
		return nil, fmt.Errorf("marking build complete: %w", err)
	}

	p.Done()
	p.Stats(stats)
	return stats, nil
}

// withGzipDump opens a gzip-compressed SQL dump file and hands a
// table-scoped sqldump.Reader over it to fn.
func withGzipDump(path, table string, fn func(*sqldump.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	return fn(sqldump.NewReader(gz, table))
}
