package store

import (
	"path/filepath"
	"testing"

	"github.com/wikihop/wikihop/internal/wikierr"
)

func TestStoreInternerBijectivity(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	s, err := OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	cases := []struct {
		ns    int32
		title string
		id    uint32
	}{
		{0, "Gopher", 1},
		{0, "Go_(programming_language)", 2},
		{14, "Category:Gophers", 3},
	}
	for _, c := range cases {
		if err := s.PutForward(c.ns, []byte(c.title), c.id); err != nil {
			t.Fatal(err)
		}
		if err := s.PutReverse(c.id, c.ns, []byte(c.title)); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range cases {
		id, ok, err := s.LookupForward(c.ns, []byte(c.title))
		if err != nil || !ok || id != c.id {
			t.Fatalf("forward(%d,%s) = %d,%v,%v, want %d", c.ns, c.title, id, ok, err, c.id)
		}
		ns, title, ok, err := s.LookupReverse(c.id)
		if err != nil || !ok || ns != c.ns || string(title) != c.title {
			t.Fatalf("reverse(%d) = %d,%s,%v,%v, want %d,%s", c.id, ns, title, ok, err, c.ns, c.title)
		}
	}
}

func TestStoreAdjacencyRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	s, err := OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	neighbors := []uint32{2, 3, 7}
	if err := s.PutAdjacency(1, neighbors); err != nil {
		t.Fatal(err)
	}
	got, err := s.LookupAdjacency(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(neighbors) {
		t.Fatalf("got %v, want %v", got, neighbors)
	}
	for i := range neighbors {
		if got[i] != neighbors[i] {
			t.Fatalf("got %v, want %v", got, neighbors)
		}
	}

	none, err := s.LookupAdjacency(999)
	if err != nil || none != nil {
		t.Fatalf("expected no adjacency for unknown page, got %v, %v", none, err)
	}
}

func TestReverseAdjacencyRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	s, err := OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	neighbors := []uint32{4, 5}
	if err := s.PutReverseAdjacency(9, neighbors); err != nil {
		t.Fatal(err)
	}
	got, err := s.LookupReverseAdjacency(9)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("got %v, want %v", got, neighbors)
	}
}

func TestOpenForQueryRequiresBuildComplete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	s, err := OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutForward(0, []byte("X"), 1); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := OpenForQuery(dir); err != wikierr.ErrIndexIncomplete {
		t.Fatalf("expected ErrIndexIncomplete, got %v", err)
	}

	s, err = OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MarkBuildComplete(); err != nil {
		t.Fatal(err)
	}
	s.Close()

	q, err := OpenForQuery(dir)
	if err != nil {
		t.Fatalf("expected successful open, got %v", err)
	}
	q.Close()
}

func TestRedirectLookup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	s, err := OpenForBuild(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.PutRedirect(2, 3); err != nil {
		t.Fatal(err)
	}
	to, isRedir, err := s.LookupRedirect(2)
	if err != nil || !isRedir || to != 3 {
		t.Fatalf("got %d,%v,%v want 3,true,nil", to, isRedir, err)
	}
	_, isRedir, err = s.LookupRedirect(99)
	if err != nil || isRedir {
		t.Fatalf("expected no redirect for unknown page")
	}
}
