package moderation

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed dictionary.json
var dictionaryJSON []byte

// Dictionary is the word list shared by the server scan and the client-side
// pre-submit check.
type Dictionary struct {
	ForbiddenTerms  []string `json:"forbidden_terms"`
	OffensiveRoots  []string `json:"offensive_roots"`
	AddressKeywords []string `json:"address_keywords"`
}

// DefaultDictionary parses the embedded list. It panics on a malformed file
// since that is a build defect.
func DefaultDictionary() Dictionary {
	var d Dictionary
	if err := json.Unmarshal(dictionaryJSON, &d); err != nil {
		panic("moderation: bad embedded dictionary: " + err.Error())
	}
	return d.normalized()
}

func (d Dictionary) normalized() Dictionary {
	return Dictionary{
		ForbiddenTerms:  normalizeList(d.ForbiddenTerms, true),
		OffensiveRoots:  normalizeList(d.OffensiveRoots, false),
		AddressKeywords: normalizeList(d.AddressKeywords, true),
	}
}

// normalizeList case-folds entries and, for whole-word lists, collapses them
// to the same token form the scanner builds from input text.
func normalizeList(in []string, phrase bool) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if phrase {
			s = strings.Join(tokenize(s), " ")
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
