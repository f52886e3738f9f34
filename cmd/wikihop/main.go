// Command wikihop is the CLI surface of the dump-to-index pipeline and
// path search engine: download/index/path subcommands, adapted from the
// teacher's flag.NewFlagSet-per-subcommand dispatch in main.go, trimmed
// to this module's three verbs (no serve subcommand, see DESIGN.md) and
// wired to the staged progress reporter for index.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pbnjay/memory"

	"github.com/wikihop/wikihop/internal/buildpipeline"
	"github.com/wikihop/wikihop/internal/fetch"
	"github.com/wikihop/wikihop/internal/language"
	"github.com/wikihop/wikihop/internal/model"
	"github.com/wikihop/wikihop/internal/search"
	"github.com/wikihop/wikihop/internal/store"
	"github.com/wikihop/wikihop/internal/wikierr"
)

const (
	exitOK = iota
	_      // reserved, no generic-error code in spec.md's table
	exitNetwork
	exitParse
	exitIO
	exitUnknownTitle
	exitNoPath
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		log.Print("expected a 'download', 'index' or 'path' subcommand")
		return exitIO
	}

	switch args[0] {
	case "download":
		return runDownload(args[1:])
	case "index":
		return runIndex(args[1:])
	case "path":
		return runPath(args[1:])
	default:
		log.Printf("unrecognized subcommand %q, expected 'download', 'index' or 'path'", args[0])
		return exitIO
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func runDownload(args []string) int {
	cmd := flag.NewFlagSet("download", flag.ExitOnError)
	out := cmd.String("out", "dumps", "directory to download dump files to")
	mirror := cmd.String("mirror", envOr("WIKIHOP_MIRROR", fetch.DefaultMirror), "dump mirror base URL")
	lang := cmd.String("language", "en", "language to download dumps for (name, ISO code, or database key)")
	if err := cmd.Parse(args); err != nil {
		return exitIO
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Print(err)
		return exitIO
	}

	l, err := language.Lookup(*lang)
	if err != nil {
		log.Print(err)
		return exitNetwork
	}

	ctx := context.Background()
	files, err := fetch.Fetch(ctx, *out, *mirror, l, os.Stdout)
	if err != nil {
		log.Print(err)
		return exitNetwork
	}

	log.Printf("downloaded %s dump generation %s to %s", l.Database, files.DumpDate, *out)
	return exitOK
}

func runIndex(args []string) int {
	cmd := flag.NewFlagSet("index", flag.ExitOnError)
	dumps := cmd.String("dumps", "dumps", "directory containing the downloaded dump files")
	out := cmd.String("out", envOr("WIKIHOP_INDEX_DIR", "."), "directory to write the index to")
	lang := cmd.String("language", "en", "language the dumps belong to (name, ISO code, or database key)")
	memPercent := cmd.Int("memory", 50, "maximum percentage of total system memory to give the index's block cache")
	if err := cmd.Parse(args); err != nil {
		return exitIO
	}
	if *memPercent < 0 || *memPercent > 100 {
		log.Print("memory percentage out of bounds")
		return exitIO
	}
	cacheBytes := int64(float64(memory.TotalMemory()) * float64(*memPercent) / 100)

	l, err := language.Lookup(*lang)
	if err != nil {
		log.Print(err)
		return exitNetwork
	}

	files, dumpDate, err := locateDumpFiles(*dumps, l.Database)
	if err != nil {
		log.Print(err)
		return exitIO
	}

	indexDir := filepath.Join(*out, l.Database+"-"+dumpDate)
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		log.Print(err)
		return exitIO
	}

	opts := buildpipeline.Options{
		PageDumpPath:      files.PagePath,
		RedirectDumpPath:  files.RedirectPath,
		PagelinksDumpPath: files.PagelinksPath,
		DumpDate:          dumpDate,
		LangCode:          l.Code,
		IndexDir:          indexDir,
		CacheBytes:        cacheBytes,
	}

	start := time.Now()
	if _, err := buildpipeline.Build(context.Background(), opts, os.Stdout); err != nil {
		log.Print(err)
		var parseErr *wikierr.ParseError
		var schemaErr *wikierr.SchemaMismatch
		if errors.As(err, &parseErr) || errors.As(err, &schemaErr) {
			return exitParse
		}
		return exitIO
	}

	log.Printf("index for %s built at %s in %s", l.Database, indexDir, time.Since(start).Round(time.Millisecond))
	return exitOK
}

// locateDumpFiles finds the three expected dump files for a database key
// inside dir, matching the naming convention fetch.Fetch downloads
// (<database>-<date>-<table>.sql.gz, e.g. enwiki-20260701-page.sql.gz),
// and recovers the shared date
// string embedded in the page dump's filename.
func locateDumpFiles(dir, database string) (fetch.DumpFiles, string, error) {
	page, err := globOne(dir, database+"-*-page.sql.gz")
	if err != nil {
		return fetch.DumpFiles{}, "", err
	}
	redirectPath, err := globOne(dir, database+"-*-redirect.sql.gz")
	if err != nil {
		return fetch.DumpFiles{}, "", err
	}
	pagelinks, err := globOne(dir, database+"-*-pagelinks.sql.gz")
	if err != nil {
		return fetch.DumpFiles{}, "", err
	}

	dateString := dumpDateRegexp.FindString(filepath.Base(page))
	if dateString == "" {
		return fetch.DumpFiles{}, "", fmt.Errorf("could not determine dump date from %q", page)
	}

	return fetch.DumpFiles{PagePath: page, RedirectPath: redirectPath, PagelinksPath: pagelinks}, dateString, nil
}

var dumpDateRegexp = regexp.MustCompile(`[0-9]{8}`)

func globOne(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no file matching %q found in %s", pattern, dir)
	}
	return matches[0], nil
}

func runPath(args []string) int {
	cmd := flag.NewFlagSet("path", flag.ExitOnError)
	indexDir := cmd.String("index", envOr("WIKIHOP_INDEX_DIR", "."), "directory containing the built index")
	if err := cmd.Parse(args); err != nil {
		return exitIO
	}
	if cmd.NArg() != 2 {
		log.Print("expected exactly two arguments: TITLE_A TITLE_B")
		return exitIO
	}
	titleA, titleB := cmd.Arg(0), cmd.Arg(1)

	s, err := store.OpenForQuery(*indexDir)
	if err != nil {
		log.Print(err)
		return exitIO
	}
	defer s.Close()

	source, err := search.ResolveEndpoint(s, model.Namespace(0), []byte(titleA))
	if err != nil {
		log.Print(err)
		return exitUnknownTitle
	}
	target, err := search.ResolveEndpoint(s, model.Namespace(0), []byte(titleB))
	if err != nil {
		log.Print(err)
		return exitUnknownTitle
	}

	path, err := search.ShortestPath(context.Background(), s, source, target)
	if err != nil {
		var noPath *wikierr.NoPath
		if errors.As(err, &noPath) {
			log.Print(err)
			return exitNoPath
		}
		log.Print(err)
		return exitIO
	}

	for _, id := range path {
		_, title, ok, err := s.LookupReverse(id)
		if err != nil {
			log.Print(err)
			return exitIO
		}
		if !ok {
			log.Printf("page %d on path has no title mapping", id)
			return exitIO
		}
		fmt.Println(string(title))
	}
	return exitOK
}
