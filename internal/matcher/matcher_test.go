package matcher

import (
	"reflect"
	"testing"

	"bearwatch/internal/config"
	"bearwatch/internal/domain"
)

func testKeywords() config.KeywordConfig {
	return config.KeywordConfig{
		Primary:   []string{"Perth Bears", "Mal Meninga"},
		Secondary: []string{"NRL expansion", "WA NRL"},
	}
}

func TestMatchPrimary(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	matched, relevance := m.Match("The Perth Bears have confirmed their inaugural squad")
	if relevance != domain.RelevancePrimary {
		t.Fatalf("expected primary relevance, got %d", relevance)
	}
	if !reflect.DeepEqual(matched, []string{"Perth Bears"}) {
		t.Fatalf("unexpected matched keywords: %v", matched)
	}
}

func TestMatchSecondaryOnly(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	matched, relevance := m.Match("A new round of NRL expansion talks began today")
	if relevance != domain.RelevanceSecondary {
		t.Fatalf("expected secondary relevance, got %d", relevance)
	}
	if !reflect.DeepEqual(matched, []string{"NRL expansion"}) {
		t.Fatalf("unexpected matched keywords: %v", matched)
	}
}

func TestMatchNothing(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	matched, relevance := m.Match("Cricket season preview for the summer")
	if matched != nil || relevance != 0 {
		t.Fatalf("expected no match, got %v score %d", matched, relevance)
	}

	matched, relevance = m.Match("")
	if matched != nil || relevance != 0 {
		t.Fatalf("expected no match on empty text, got %v score %d", matched, relevance)
	}
}

func TestMatchBothTiersClassifiedPrimary(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	matched, relevance := m.Match("Perth Bears boosted as NRL expansion confirmed")
	if relevance != domain.RelevancePrimary {
		t.Fatalf("expected primary relevance, got %d", relevance)
	}

	// Primary tier listed first, then secondary.
	want := []string{"Perth Bears", "NRL expansion"}
	if !reflect.DeepEqual(matched, want) {
		t.Fatalf("expected %v, got %v", want, matched)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	matched, relevance := m.Match("PERTH BEARS sign marquee player")
	if relevance != domain.RelevancePrimary || len(matched) != 1 {
		t.Fatalf("expected case-insensitive primary match, got %v score %d", matched, relevance)
	}
}

func TestMatchPartialWordFromPhrase(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	// "Meninga" (7 chars) matches the "Mal Meninga" phrase on its own.
	matched, relevance := m.Match("Meninga named inaugural coach")
	if relevance != domain.RelevancePrimary {
		t.Fatalf("expected primary via partial word, got %d", relevance)
	}
	if !reflect.DeepEqual(matched, []string{"Mal Meninga"}) {
		t.Fatalf("unexpected matched keywords: %v", matched)
	}
}

func TestMatchShortWordsNeverPartialMatch(t *testing.T) {
	t.Parallel()

	m := New(testKeywords())

	// "WA" and "NRL" are both under the partial-word threshold, so "WA NRL"
	// must not fire on text containing only the bare letters.
	matched, _ := m.Match("Warriors win in a thriller")
	if matched != nil {
		t.Fatalf("expected no match from short phrase words, got %v", matched)
	}
}
