package fetch

import "testing"

func TestChecksumSetFind(t *testing.T) {
	raw := "d0c0ffee00000000000000000000000000000000  enwiki-20260701-page.sql.gz\n" +
		"1234567890abcdef1234567890abcdef12345678  enwiki-20260701-redirect.sql.gz\n" +
		"abcdefabcdefabcdefabcdefabcdefabcdefabcd  enwiki-20260701-pagelinks.sql.gz\n"
	set := checksumSet{raw: raw}

	page, err := set.find("page.sql.gz")
	if err != nil {
		t.Fatal(err)
	}
	if page.name != "enwiki-20260701-page.sql.gz" {
		t.Fatalf("unexpected name: %q", page.name)
	}
	if page.sha1 != "d0c0ffee00000000000000000000000000000000" {
		t.Fatalf("unexpected sha1: %q", page.sha1)
	}

	redir, err := set.find("redirect.sql.gz")
	if err != nil {
		t.Fatal(err)
	}
	if redir.name != "enwiki-20260701-redirect.sql.gz" {
		t.Fatalf("unexpected name: %q", redir.name)
	}
}

func TestChecksumSetFindMissing(t *testing.T) {
	set := checksumSet{raw: "no matching lines here\n"}
	if _, err := set.find("page.sql.gz"); err == nil {
		t.Fatal("expected an error for a missing checksum entry")
	}
}
