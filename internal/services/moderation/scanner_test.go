package moderation

import (
	"reflect"
	"testing"
)

func TestScanFindings(t *testing.T) {
	s := Default()

	cases := []struct {
		name string
		text string
		want []Finding
	}{
		{"empty", "", nil},
		{"whitespace", "   \n\t", nil},
		{"clean", "I can help with your garden this weekend.", nil},
		{"phone", "Call me at 0612345678", []Finding{{Kind: KindContactPhone}}},
		{"phone with separators", "bel +31 6-1234 5678 graag", []Finding{{Kind: KindContactPhone}}},
		{"email", "mail me at jan@example.com", []Finding{{Kind: KindContactEmail}}},
		{"postal code", "I live near 1012 AB in town", []Finding{{Kind: KindPostalCode}}},
		{"postal code without space", "near 1012AB please", []Finding{{Kind: KindPostalCode}}},
		{"price before a short word", "I can come for 2500 at noon", nil},
		{"lowercase postcode shape", "near 1012ab please", nil},
		{"address keyword", "My street is nice", []Finding{{Kind: KindAddressReference, Term: "street"}}},
		{"dutch address keyword", "Het is op de Kerkstraat, huisnummer 5", []Finding{{Kind: KindAddressReference, Term: "huisnummer"}}},
		{"forbidden term case insensitive", "This is SHIT", []Finding{{Kind: KindForbiddenTerm, Term: "shit"}}},
		{"forbidden phrase", "let's pay outside the app", []Finding{{Kind: KindForbiddenTerm, Term: "pay outside"}}},
		{"forbidden term is whole word", "a shitake mushroom", nil},
		{"offensive root matches inside words", "you retarded person", []Finding{{Kind: KindOffensiveRoot, Term: "retard"}}},
		{"spam", "heyyyyy there", []Finding{{Kind: KindRepeatedCharacterSpam}}},
		{"spam punctuation", "hello!!!!!", []Finding{{Kind: KindRepeatedCharacterSpam}}},
		{"whitespace breaks runs", "aaaa aaaa", nil},
		{"round amounts are not spam", "budget 100000 is fine", nil},
		{"duplicates collapse", "shit shit SHIT", []Finding{{Kind: KindForbiddenTerm, Term: "shit"}}},
		{
			"ordered by kind",
			"Email jan@example.com or call +31 6 1234 5678, I am on whatsapp",
			[]Finding{
				{Kind: KindForbiddenTerm, Term: "whatsapp"},
				{Kind: KindContactEmail},
				{Kind: KindContactPhone},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Scan(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Scan(%q) = %v, want %v", tc.text, got, tc.want)
			}
			if s.Clean(tc.text) != (len(tc.want) == 0) {
				t.Fatalf("Clean(%q) disagrees with Scan", tc.text)
			}
		})
	}
}

func TestScanShortNumbersAreNotPhones(t *testing.T) {
	s := Default()
	if got := s.Scan("I need 3 boxes moved for 25 euro"); got != nil {
		t.Fatalf("expected clean, got %v", got)
	}
}

func TestCustomDictionaryIsNormalized(t *testing.T) {
	s := NewScanner(Dictionary{
		ForbiddenTerms: []string{"  Cash-Only ", "cash only"},
		OffensiveRoots: []string{"BADW"},
	})

	d := s.Dictionary()
	if len(d.ForbiddenTerms) != 1 || d.ForbiddenTerms[0] != "cash only" {
		t.Fatalf("unexpected forbidden terms: %v", d.ForbiddenTerms)
	}

	got := s.Scan("CASH ONLY, badwords here")
	want := []Finding{
		{Kind: KindForbiddenTerm, Term: "cash only"},
		{Kind: KindOffensiveRoot, Term: "badw"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDefaultDictionaryCoversBothLanguages(t *testing.T) {
	d := DefaultDictionary()
	has := func(list []string, w string) bool {
		for _, s := range list {
			if s == w {
				return true
			}
		}
		return false
	}
	for _, w := range []string{"scam", "oplichter", "zwart betalen"} {
		if !has(d.ForbiddenTerms, w) {
			t.Fatalf("forbidden terms missing %q", w)
		}
	}
	if !has(d.AddressKeywords, "straat") || !has(d.AddressKeywords, "street") {
		t.Fatalf("address keywords incomplete: %v", d.AddressKeywords)
	}
}

func TestFindingString(t *testing.T) {
	if got := (Finding{Kind: KindContactPhone}).String(); got != "contact_phone" {
		t.Fatalf("got %q", got)
	}
	if got := (Finding{Kind: KindForbiddenTerm, Term: "scam"}).String(); got != "forbidden_term(scam)" {
		t.Fatalf("got %q", got)
	}
}
