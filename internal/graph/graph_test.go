package graph

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wikihop/wikihop/internal/interner"
	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/redirect"
	"github.com/wikihop/wikihop/internal/sqldump"
	"github.com/wikihop/wikihop/internal/store"
)

func setupInternerAndRedirects(t *testing.T) (*interner.Interner, *redirect.Resolver) {
	t.Helper()
	pageDump := "INSERT INTO `page` VALUES " +
		"(1,0,'A',0,0,0.1,'','',1,10,'wikitext',NULL)," +
		"(2,0,'B',0,0,0.2,'','',1,10,'wikitext',NULL)," +
		"(3,0,'C',1,0,0.3,'','',1,10,'wikitext',NULL)," +
		"(4,0,'D',0,0,0.4,'','',1,10,'wikitext',NULL);\n"
	in := interner.New()
	r := sqldump.NewReader(strings.NewReader(pageDump), interner.PageTable)
	if err := in.Ingest(r, &model.BuildStats{}); err != nil {
		t.Fatal(err)
	}

	// C (page 3) redirects to D (page 4).
	redirDump := "INSERT INTO `redirect` VALUES (3,0,'D','','');\n"
	rr := sqldump.NewReader(strings.NewReader(redirDump), redirect.RedirectTable)
	stats := &model.BuildStats{}
	resolver, err := redirect.Build(rr, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	return in, resolver
}

func TestGraphBuildBasicAndRetarget(t *testing.T) {
	in, resolver := setupInternerAndRedirects(t)

	// A -> B, A -> C (C is a redirect to D, should retarget to D -> A->D).
	dump := "INSERT INTO `pagelinks` VALUES (1,0,'B'),(1,0,'C');\n"
	r := sqldump.NewReader(strings.NewReader(dump), PagelinksTable)

	dir := filepath.Join(t.TempDir(), "idx")
	s, err := store.OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	stats := &model.BuildStats{}
	if err := Build(context.Background(), r, in, resolver, s, stats); err != nil {
		t.Fatal(err)
	}

	neighbors, err := s.LookupAdjacency(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 2 || neighbors[0] != 2 || neighbors[1] != 4 {
		t.Fatalf("expected [2,4] (B, then retargeted D), got %v", neighbors)
	}
	if stats.RetargetedTargetEdges != 1 {
		t.Fatalf("expected 1 retargeted target edge, got %d", stats.RetargetedTargetEdges)
	}
	if stats.EdgesEmitted != 2 {
		t.Fatalf("expected 2 edges emitted, got %d", stats.EdgesEmitted)
	}
}

func TestGraphBuildRetargetsRedirectingSource(t *testing.T) {
	in, resolver := setupInternerAndRedirects(t)

	// C (a redirect to D) -> B: the edge's source should be retargeted to
	// D, so the surviving edge is D->B, not the unreachable C->B.
	dump := "INSERT INTO `pagelinks` VALUES (3,0,'B');\n"
	r := sqldump.NewReader(strings.NewReader(dump), PagelinksTable)

	dir := filepath.Join(t.TempDir(), "idx")
	s, err := store.OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	stats := &model.BuildStats{}
	if err := Build(context.Background(), r, in, resolver, s, stats); err != nil {
		t.Fatal(err)
	}

	neighbors, err := s.LookupAdjacency(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 1 || neighbors[0] != 2 {
		t.Fatalf("expected retargeted D->B edge, got adjacency(D)=%v", neighbors)
	}
	if stray, err := s.LookupAdjacency(3); err != nil {
		t.Fatal(err)
	} else if len(stray) != 0 {
		t.Fatalf("expected no edges stored under the redirect's own id, got %v", stray)
	}
	if stats.RetargetedSourceEdges != 1 {
		t.Fatalf("expected 1 retargeted source edge, got %d", stats.RetargetedSourceEdges)
	}
}

func TestGraphBuildDropsSelfLoopsAndDangling(t *testing.T) {
	in, resolver := setupInternerAndRedirects(t)

	// A -> A (self-loop after resolution) and A -> Nonexistent (dangling).
	dump := "INSERT INTO `pagelinks` VALUES (1,0,'A'),(1,0,'Nonexistent');\n"
	r := sqldump.NewReader(strings.NewReader(dump), PagelinksTable)

	dir := filepath.Join(t.TempDir(), "idx")
	s, err := store.OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	stats := &model.BuildStats{}
	if err := Build(context.Background(), r, in, resolver, s, stats); err != nil {
		t.Fatal(err)
	}

	neighbors, err := s.LookupAdjacency(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("expected no surviving edges, got %v", neighbors)
	}
	if stats.SelfLoopsDropped != 1 {
		t.Fatalf("expected 1 self-loop dropped, got %d", stats.SelfLoopsDropped)
	}
	if stats.DanglingLinks != 1 {
		t.Fatalf("expected 1 dangling link, got %d", stats.DanglingLinks)
	}
}

func TestGraphBuildDeduplicatesEdges(t *testing.T) {
	in, resolver := setupInternerAndRedirects(t)

	// A -> B twice; should collapse to a single neighbor entry.
	dump := "INSERT INTO `pagelinks` VALUES (1,0,'B'),(1,0,'B');\n"
	r := sqldump.NewReader(strings.NewReader(dump), PagelinksTable)

	dir := filepath.Join(t.TempDir(), "idx")
	s, err := store.OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	stats := &model.BuildStats{}
	if err := Build(context.Background(), r, in, resolver, s, stats); err != nil {
		t.Fatal(err)
	}

	neighbors, err := s.LookupAdjacency(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 1 || neighbors[0] != 2 {
		t.Fatalf("expected deduplicated [2], got %v", neighbors)
	}
}
