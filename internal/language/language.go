// Package language resolves a human-typed language name, code, or
// database key (e.g. "English", "en", "enwiki") to the Wikipedia
// language Wikimedia's dump mirrors key their directories by. Adapted
// from the teacher's language.go getLanguage, kept as a single lookup
// function.
package language

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Language names one Wikipedia language edition.
type Language struct {
	Name     string
	Code     string
	Database string
}

// siteMatrixURL is Wikimedia Commons' canonical source of the list of
// Wikipedia language editions and their database keys.
const siteMatrixURL = "https://commons.wikimedia.org/w/api.php?format=json&action=sitematrix"

// Lookup finds a language by name, ISO code, or database key
// (case-insensitive), fetching the current site matrix from Wikimedia
// Commons.
func Lookup(search string) (Language, error) {
	resp, err := http.Get(siteMatrixURL)
	if err != nil {
		return Language{}, err
	}
	defer resp.Body.Close()

	sitematrix := struct {
		RawSites map[string]json.RawMessage `json:"sitematrix"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&sitematrix); err != nil {
		return Language{}, err
	}

	for key, rawSite := range sitematrix.RawSites {
		if key == "specials" || key == "count" {
			continue
		}

		site := struct {
			Code     string `json:"code"`
			Name     string `json:"name"`
			Subsites []struct {
				URL    string `json:"url"`
				Dbname string `json:"dbname"`
			} `json:"site"`
		}{}
		if err := json.Unmarshal(rawSite, &site); err != nil {
			return Language{}, err
		}

		for _, subsite := range site.Subsites {
			if !strings.Contains(subsite.URL, "wikipedia.org") {
				continue
			}
			lang := Language{
				Name:     site.Name,
				Code:     site.Code,
				Database: subsite.Dbname,
			}
			if strings.EqualFold(search, lang.Name) || strings.EqualFold(search, lang.Code) || strings.EqualFold(search, lang.Database) {
				return lang, nil
			}
		}
	}

	return Language{}, fmt.Errorf("language %q not found", search)
}
