// Package model holds the data types shared by every stage of the
// dump-to-index pipeline and the search engine built on top of it.
package model

// PageID is the dense integer identifier MediaWiki assigns to a page.
// Zero is reserved to mean "no page".
type PageID = uint32

// Namespace is MediaWiki's integer classification of a page (0 for
// articles, 14 for categories, and so on).
type Namespace = int32

// MainNamespace is the default namespace this tool operates on.
const MainNamespace Namespace = 0

// MaxTitleBytes is the upstream limit on title length.
const MaxTitleBytes = 255

// Title is a page title in URL form (underscores, not spaces), stored as
// raw bytes since MediaWiki does not guarantee UTF-8.
type Title = []byte

// Page is one row of the `page` table.
type Page struct {
	ID         PageID
	Namespace  Namespace
	Title      Title
	IsRedirect bool
}

// Redirect is one row of the `redirect` table, prior to resolution.
type Redirect struct {
	From        PageID
	ToNamespace Namespace
	ToTitle     Title
}

// Pagelink is one row of the `pagelinks` table, prior to resolution.
type Pagelink struct {
	From        PageID
	ToNamespace Namespace
	ToTitle     Title
}

// Edge is a resolved, non-redirect-to-non-redirect link.
type Edge struct {
	From PageID
	To   PageID
}

// Key identifies a page by its logical (namespace, title) pair.
type Key struct {
	Namespace Namespace
	Title     string
}

// BuildStats accumulates the recoverable-error counters spec.md §7 calls
// for, surfaced to the operator at the end of an index build.
type BuildStats struct {
	PagesIngested         int
	DanglingRedirects     int // Redirect record, §7 class 5
	DanglingLinks         int // Pagelink record, §7 class 5
	RedirectCyclesBroken  int // §7 class 6
	RetargetedTargetEdges int // ordinary §4.3 resolution: pl_title names a redirect
	RetargetedSourceEdges int // §9 open question: pl_from is itself a redirect
	SelfLoopsDropped      int
	EdgesEmitted          int
}
