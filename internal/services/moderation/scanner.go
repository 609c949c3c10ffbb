// Package moderation inspects free text for contact details, addresses,
// profanity and spam before it is stored.
package moderation

import (
	"regexp"
	"strings"
	"unicode"
)

type Kind string

const (
	KindForbiddenTerm         Kind = "forbidden_term"
	KindOffensiveRoot         Kind = "offensive_root"
	KindContactEmail          Kind = "contact_email"
	KindContactPhone          Kind = "contact_phone"
	KindAddressReference      Kind = "address_reference"
	KindPostalCode            Kind = "postal_code"
	KindRepeatedCharacterSpam Kind = "repeated_character_spam"
)

// Finding is one policy hit. Term is set for dictionary kinds only.
type Finding struct {
	Kind Kind   `json:"kind"`
	Term string `json:"term,omitempty"`
}

func (f Finding) String() string {
	if f.Term == "" {
		return string(f.Kind)
	}
	return string(f.Kind) + "(" + f.Term + ")"
}

var (
	emailRe = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	// 8+ digits, optionally led by + or 00, with spaces, dashes, dots, slashes or parens between
	phoneRe = regexp.MustCompile(`(?:\+|00)?\d(?:[\s\-./()]*\d){7,}`)
	// Dutch postcode: 1234 AB / 1234AB, upper-case letters on the raw text
	postalRe = regexp.MustCompile(`\b[1-9]\d{3}\s?[A-Z]{2}\b`)
)

const spamRun = 5

type Scanner struct {
	dict Dictionary
}

func NewScanner(d Dictionary) *Scanner {
	return &Scanner{dict: d.normalized()}
}

// Default scans against the embedded dictionary.
func Default() *Scanner {
	return &Scanner{dict: DefaultDictionary()}
}

func (s *Scanner) Dictionary() Dictionary { return s.dict }

// Scan returns the de-duplicated findings for text in a stable order. Clean
// text yields nil.
func (s *Scanner) Scan(text string) []Finding {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	var out []Finding
	seen := map[Finding]bool{}
	add := func(f Finding) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}

	padded := " " + strings.Join(tokenize(lower), " ") + " "
	for _, term := range s.dict.ForbiddenTerms {
		if strings.Contains(padded, " "+term+" ") {
			add(Finding{Kind: KindForbiddenTerm, Term: term})
		}
	}
	for _, root := range s.dict.OffensiveRoots {
		if strings.Contains(lower, root) {
			add(Finding{Kind: KindOffensiveRoot, Term: root})
		}
	}
	if emailRe.MatchString(lower) {
		add(Finding{Kind: KindContactEmail})
	}
	if phoneRe.MatchString(lower) {
		add(Finding{Kind: KindContactPhone})
	}
	for _, kw := range s.dict.AddressKeywords {
		if strings.Contains(padded, " "+kw+" ") {
			add(Finding{Kind: KindAddressReference, Term: kw})
		}
	}
	if postalRe.MatchString(text) {
		add(Finding{Kind: KindPostalCode})
	}
	if repeatedRun(lower, spamRun) {
		add(Finding{Kind: KindRepeatedCharacterSpam})
	}
	return out
}

// Clean is shorthand for len(Scan(text)) == 0.
func (s *Scanner) Clean(text string) bool {
	return len(s.Scan(text)) == 0
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func repeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		// digits are left to the phone rule
		if unicode.IsSpace(r) || unicode.IsDigit(r) {
			run = 0
			prev = 0
			continue
		}
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
