package redirect

import (
	"strings"
	"testing"

	"github.com/wikihop/wikihop/internal/interner"
	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/sqldump"
)

func buildInterner(t *testing.T, pageDump string) *interner.Interner {
	t.Helper()
	in := interner.New()
	r := sqldump.NewReader(strings.NewReader(pageDump), interner.PageTable)
	if err := in.Ingest(r, &model.BuildStats{}); err != nil {
		t.Fatal(err)
	}
	return in
}

func TestBasicResolution(t *testing.T) {
	in := buildInterner(t, "INSERT INTO `page` VALUES "+
		"(1,0,'A',1,0,0.1,'','',1,10,'wikitext',NULL),"+
		"(2,0,'B',0,0,0.2,'','',1,10,'wikitext',NULL);\n")

	dump := "INSERT INTO `redirect` VALUES (1,0,'B','','');\n"
	r := sqldump.NewReader(strings.NewReader(dump), RedirectTable)
	stats := &model.BuildStats{}
	res, err := Build(r, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	to, ok := res.Resolve(1)
	if !ok || to != 2 {
		t.Fatalf("resolve(1) = %d,%v, want 2,true", to, ok)
	}
	if stats.DanglingRedirects != 0 {
		t.Fatalf("expected no dangling redirects, got %d", stats.DanglingRedirects)
	}
}

func TestDanglingRedirectDropped(t *testing.T) {
	in := buildInterner(t, "INSERT INTO `page` VALUES (1,0,'A',1,0,0.1,'','',1,10,'wikitext',NULL);\n")

	dump := "INSERT INTO `redirect` VALUES (1,0,'DoesNotExist','','');\n"
	r := sqldump.NewReader(strings.NewReader(dump), RedirectTable)
	stats := &model.BuildStats{}
	res, err := Build(r, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Resolve(1); ok {
		t.Fatal("expected dangling redirect to not resolve")
	}
	if stats.DanglingRedirects != 1 {
		t.Fatalf("expected 1 dangling redirect, got %d", stats.DanglingRedirects)
	}
}

func TestChainCollapsing(t *testing.T) {
	in := buildInterner(t, "INSERT INTO `page` VALUES "+
		"(1,0,'A',1,0,0.1,'','',1,10,'wikitext',NULL),"+
		"(2,0,'B',1,0,0.2,'','',1,10,'wikitext',NULL),"+
		"(3,0,'C',0,0,0.3,'','',1,10,'wikitext',NULL);\n")

	dump := "INSERT INTO `redirect` VALUES (1,0,'B','',''),(2,0,'C','','');\n"
	r := sqldump.NewReader(strings.NewReader(dump), RedirectTable)
	stats := &model.BuildStats{}
	res, err := Build(r, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	to, ok := res.Resolve(1)
	if !ok || to != 3 {
		t.Fatalf("resolve(1) = %d,%v, want 3,true (A->B->C collapsed)", to, ok)
	}
	to, ok = res.Resolve(2)
	if !ok || to != 3 {
		t.Fatalf("resolve(2) = %d,%v, want 3,true", to, ok)
	}
}

func TestCycleDetectionDropsAllParticipants(t *testing.T) {
	in := buildInterner(t, "INSERT INTO `page` VALUES "+
		"(2,0,'B',1,0,0.2,'','',1,10,'wikitext',NULL),"+
		"(3,0,'C',1,0,0.3,'','',1,10,'wikitext',NULL);\n")

	dump := "INSERT INTO `redirect` VALUES (2,0,'C','',''),(3,0,'B','','');\n"
	r := sqldump.NewReader(strings.NewReader(dump), RedirectTable)
	stats := &model.BuildStats{}
	res, err := Build(r, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Resolve(2); ok {
		t.Fatal("expected page 2 (cycle participant) to be dropped")
	}
	if _, ok := res.Resolve(3); ok {
		t.Fatal("expected page 3 (cycle participant) to be dropped")
	}
	if stats.RedirectCyclesBroken != 1 {
		t.Fatalf("expected 1 cycle broken, got %d", stats.RedirectCyclesBroken)
	}
	if res.Len() != 0 {
		t.Fatalf("expected no resolved redirects, got %d", res.Len())
	}
}

func TestSelfRedirectIsACycle(t *testing.T) {
	in := buildInterner(t, "INSERT INTO `page` VALUES (1,0,'A',1,0,0.1,'','',1,10,'wikitext',NULL);\n")

	dump := "INSERT INTO `redirect` VALUES (1,0,'A','','');\n"
	r := sqldump.NewReader(strings.NewReader(dump), RedirectTable)
	stats := &model.BuildStats{}
	res, err := Build(r, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Resolve(1); ok {
		t.Fatal("expected self-redirect to be dropped as a cycle")
	}
	if stats.RedirectCyclesBroken != 1 {
		t.Fatalf("expected 1 cycle broken, got %d", stats.RedirectCyclesBroken)
	}
}

func TestPredecessorOfDroppedCycleAlsoFails(t *testing.T) {
	in := buildInterner(t, "INSERT INTO `page` VALUES "+
		"(1,0,'A',1,0,0.1,'','',1,10,'wikitext',NULL),"+
		"(2,0,'B',1,0,0.2,'','',1,10,'wikitext',NULL),"+
		"(3,0,'C',1,0,0.3,'','',1,10,'wikitext',NULL);\n")

	// A -> B -> C -> B (B/C form a cycle; A feeds into it)
	dump := "INSERT INTO `redirect` VALUES (1,0,'B','',''),(2,0,'C','',''),(3,0,'B','','');\n"
	r := sqldump.NewReader(strings.NewReader(dump), RedirectTable)
	stats := &model.BuildStats{}
	res, err := Build(r, in, stats)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Resolve(1); ok {
		t.Fatal("expected predecessor of a cycle to also fail to resolve")
	}
	if _, ok := res.Resolve(2); ok {
		t.Fatal("expected cycle participant 2 to fail to resolve")
	}
	if _, ok := res.Resolve(3); ok {
		t.Fatal("expected cycle participant 3 to fail to resolve")
	}
}
