// Package fetch implements component F: resolving the latest dump
// generation for a language and downloading its page/redirect/pagelinks
// SQL dumps with checksum verification and resumability. Adapted from
// the teacher's fetchDumpFiles/downloadFile in dump.go, rebuilt on
// github.com/cavaliercoder/grab (a teacher dependency left unused in the
// snapshot's hand-rolled net/http downloader) for the resumable,
// checksum-verifying transfer itself, with
// github.com/cheggaaa/pb/v3 driving the same progress-bar rendering the
// teacher used.
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/cheggaaa/pb/v3"

	"github.com/wikihop/wikihop/internal/language"
)

// DefaultMirror is Wikimedia's own dump server, used when the operator
// does not specify one.
const DefaultMirror = "https://dumps.wikimedia.org"

// DumpFiles names the three local dump files the indexing pipeline
// consumes.
type DumpFiles struct {
	PagePath      string
	RedirectPath  string
	PagelinksPath string
	DumpDate      string
}

type checksum struct {
	name string
	sha1 string
}

// Fetch downloads the latest page, redirect and pagelinks dumps for lang
// into directory, verifying each against the mirror's published SHA1
// checksums. Progress for each file is written to progressOut.
func Fetch(ctx context.Context, directory, mirror string, lang language.Language, progressOut io.Writer) (DumpFiles, error) {
	if mirror == "" {
		mirror = DefaultMirror
	}

	sums, dumpDate, err := latestChecksums(ctx, mirror, lang.Database)
	if err != nil {
		return DumpFiles{}, err
	}

	baseURL := fmt.Sprintf("%s/%s/%s", mirror, lang.Database, dumpDate)
	files := DumpFiles{DumpDate: dumpDate}

	page, err := sums.find("page.sql.gz")
	if err != nil {
		return DumpFiles{}, err
	}
	files.PagePath = filepath.Join(directory, page.name)
	if err := download(ctx, files.PagePath, baseURL+"/"+page.name, page.sha1, progressOut); err != nil {
		return DumpFiles{}, err
	}

	redir, err := sums.find("redirect.sql.gz")
	if err != nil {
		return DumpFiles{}, err
	}
	files.RedirectPath = filepath.Join(directory, redir.name)
	if err := download(ctx, files.RedirectPath, baseURL+"/"+redir.name, redir.sha1, progressOut); err != nil {
		return DumpFiles{}, err
	}

	links, err := sums.find("pagelinks.sql.gz")
	if err != nil {
		return DumpFiles{}, err
	}
	files.PagelinksPath = filepath.Join(directory, links.name)
	if err := download(ctx, files.PagelinksPath, baseURL+"/"+links.name, links.sha1, progressOut); err != nil {
		return DumpFiles{}, err
	}

	return files, nil
}

type checksumSet struct {
	raw string
}

func (s checksumSet) find(filename string) (checksum, error) {
	fileRegex, err := regexp.Compile("[0-9a-f]{40}  .+?wiki-[0-9]{8}-" + filename)
	if err != nil {
		return checksum{}, err
	}
	line := fileRegex.FindString(s.raw)
	parts := strings.Split(line, "  ")
	if len(parts) != 2 {
		return checksum{}, fmt.Errorf("%s checksum not found", filename)
	}
	return checksum{sha1: parts[0], name: parts[1]}, nil
}

// latestChecksums fetches the mirror's published SHA1 checksums file for
// a database key and extracts the dump generation's date string.
func latestChecksums(ctx context.Context, mirror, database string) (checksumSet, string, error) {
	url := fmt.Sprintf("%s/%s/latest/%s-latest-sha1sums.txt", mirror, database, database)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return checksumSet{}, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return checksumSet{}, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return checksumSet{}, "", err
	}
	set := checksumSet{raw: string(body)}

	page, err := set.find("page.sql.gz")
	if err != nil {
		return checksumSet{}, "", err
	}
	dateString := regexp.MustCompile("[0-9]{8}").FindString(page.name)
	if dateString == "" {
		return checksumSet{}, "", fmt.Errorf("could not determine dump date from %q", page.name)
	}

	return set, dateString, nil
}

// download fetches one checksummed file via grab, which both resumes
// partial downloads and skips re-fetching a destination file whose
// content already matches the expected SHA1.
func download(ctx context.Context, dst, src, sha1Hex string, progressOut io.Writer) error {
	sum, err := hex.DecodeString(sha1Hex)
	if err != nil {
		return err
	}

	req, err := grab.NewRequest(dst, src)
	if err != nil {
		return err
	}
	req.SetChecksum(sha1.New(), sum, true)

	client := grab.NewClient()
	resp := client.Do(req)

	bar := pb.Start64(resp.Size())
	bar.SetWriter(progressOut)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			bar.SetCurrent(resp.BytesComplete())
		case <-resp.Done:
			break loop
		}
	}
	bar.SetCurrent(resp.BytesComplete())
	bar.Finish()

	return resp.Err()
}
