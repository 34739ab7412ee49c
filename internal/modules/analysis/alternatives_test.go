package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
)

func TestParseAlternatives_ArrayAndWrapped(t *testing.T) {
	array := `[{"name":"Organic Tee","brand":"Pact","sustainability_score":4.1,"link":"wearpact.com/tee","why_sustainable":"GOTS cotton"}]`
	wrapped := `{"alternatives": [{"name":"Wool Sweater","brand":"Kotn","link":"https://kotn.com/s"}]}`

	got, err := parseAlternatives(array)
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if len(got) != 1 || got[0].Link != "https://wearpact.com/tee" || got[0].SustainabilityScore != 4.1 {
		t.Fatalf("array: unexpected %+v", got)
	}

	got, err = parseAlternatives(wrapped)
	if err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	if got[0].SustainabilityScore != 4.0 || got[0].WhySustainable == "" {
		t.Fatalf("wrapped defaults: unexpected %+v", got[0])
	}
}

func TestParseAlternatives_SkipsBracketedProse(t *testing.T) {
	text := "Ranked on a [1-5] scale, see [1, 2] below.\n" +
		`{"alternatives": [{"name":"Linen Shirt","brand":"Kotn","link":"https://kotn.com/l"}]}`
	got, err := parseAlternatives(text)
	if err != nil {
		t.Fatalf("parseAlternatives: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Linen Shirt" {
		t.Fatalf("candidates: unexpected %+v", got)
	}
}

func TestParseAlternatives_DropsInvalidAndCapsAtThree(t *testing.T) {
	text := `[
	  {"name":"A","brand":"X","sustainability_score":9},
	  {"name":"B","brand":"X"},
	  {"name":"C","brand":"X"},
	  {"name":"D","brand":"X"},
	  {"name":"E","brand":"X"}
	]`
	got, err := parseAlternatives(text)
	if err != nil {
		t.Fatalf("parseAlternatives: %v", err)
	}
	if len(got) != 3 || got[0].Name != "B" || got[2].Name != "D" {
		t.Fatalf("candidates: unexpected %+v", got)
	}
}

func TestGenerativeFinder_FallsBackToCuratedList(t *testing.T) {
	out := NewGenerativeFinder(testLogger(), newFakeText().on("sustainable brands", "no idea"), 0).
		Find(context.Background(), "Nike", wardrobe.BrandInfo{})
	if !out.Fallback || len(out.Value) != 3 || out.Value[0].Brand != "Patagonia" {
		t.Fatalf("fallback: unexpected %+v", out)
	}
}

func TestEnsureShoppingQuery(t *testing.T) {
	cases := map[string]string{
		"organic cotton tee":       "buy organic cotton tee clothing",
		"shop sustainable apparel": "shop sustainable apparel",
		"recycled clothing":        "buy recycled clothing",
		"buy hemp jeans":           "buy hemp jeans clothing",
	}
	for in, want := range cases {
		if got := EnsureShoppingQuery(in); got != want {
			t.Fatalf("EnsureShoppingQuery(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestFallbackQuery(t *testing.T) {
	if got := FallbackQuery(wardrobe.BrandInfo{ProductTitle: "Hoodie with logo"}); got != "buy sustainable eco-friendly hoodie clothing" {
		t.Fatalf("with title: got=%q", got)
	}
	if got := FallbackQuery(wardrobe.BrandInfo{}); got != "buy sustainable eco-friendly clothing clothing" {
		t.Fatalf("without title: got=%q", got)
	}
}

func TestSearchFinder_FiltersAndLimits(t *testing.T) {
	search := &fakeSearch{results: []gcp.SearchResult{
		{Title: "Best sustainable hoodies thread", Link: "https://www.reddit.com/r/sustainablefashion/1"},
		{Title: "Organic Cotton Hoodie", Link: "https://www.patagonia.com/p/1", Snippet: "Fair Trade sewn"},
		{Title: "Recycled Tee", Link: "https://tentree.com/tee"},
		{Title: "Random page", Link: "https://example.org/about"},
		{Title: "Hemp Jacket", Link: "https://www.hempco.com/jacket"},
		{Title: "Another Shirt", Link: "https://kotn.com/shirt"},
	}}
	queries := newFakeText().on("Google search", `"organic hoodie"`)
	f := NewSearchFinder(testLogger(), NewLLMQueryGenerator(queries, 0), search, nil, 0)

	out := f.Find(context.Background(), "Nike", wardrobe.BrandInfo{ProductTitle: "Hoodie"})
	if out.Fallback {
		t.Fatalf("fallback: want=false reason=%v", out.Reason)
	}
	if len(out.Value) != 3 {
		t.Fatalf("candidates: want=3 got=%d", len(out.Value))
	}
	for _, c := range out.Value {
		if strings.Contains(c.Link, "reddit") {
			t.Fatalf("reddit result should be filtered: %+v", c)
		}
	}
	if out.Value[0].Brand != "Patagonia" || out.Value[0].WhySustainable != "Fair Trade sewn" || out.Value[0].SustainabilityScore != 4.0 {
		t.Fatalf("first candidate: unexpected %+v", out.Value[0])
	}
	if out.Value[1].WhySustainable != defaultSearchWhy {
		t.Fatalf("default why: got=%q", out.Value[1].WhySustainable)
	}
	if out.Value[2].Brand != "Hempco" {
		t.Fatalf("domain brand: want=Hempco got=%q", out.Value[2].Brand)
	}
	if len(search.queries) != 1 || search.queries[0] != "buy organic hoodie clothing" || search.counts[0] != 10 {
		t.Fatalf("search call: queries=%v counts=%v", search.queries, search.counts)
	}
}

func TestSearchFinder_NoStoreResultsDegrades(t *testing.T) {
	search := &fakeSearch{results: []gcp.SearchResult{{Title: "Thread", Link: "https://reddit.com/x"}}}
	out := NewSearchFinder(testLogger(), nil, search, nil, 0).Find(context.Background(), "Nike", wardrobe.BrandInfo{})
	if !out.Fallback || len(out.Value) != 0 {
		t.Fatalf("want empty fallback got %+v", out)
	}
	if search.queries[0] != "buy sustainable eco-friendly clothing clothing" {
		t.Fatalf("fallback query: got=%q", search.queries[0])
	}
}

func TestPolicyFinder(t *testing.T) {
	good := Outcome[[]AlternativeCandidate]{Value: []AlternativeCandidate{{Name: "S", Brand: "Kotn", SustainabilityScore: 4}}}
	degraded := fallback([]AlternativeCandidate{}, errBoom)
	curated := fallback(FallbackAlternatives(), errBoom)

	t.Run("primary succeeds", func(t *testing.T) {
		search, gen := &fakeFinder{out: good}, &fakeFinder{out: curated}
		pf, err := NewPolicyFinder(testLogger(), PolicySearchFirst, search, gen)
		if err != nil {
			t.Fatalf("NewPolicyFinder: %v", err)
		}
		out := pf.Find(context.Background(), "Nike", wardrobe.BrandInfo{})
		if out.Fallback || gen.calls != 0 || len(out.Value) != 1 {
			t.Fatalf("unexpected outcome %+v (secondary calls=%d)", out, gen.calls)
		}
	})

	t.Run("secondary after degraded primary", func(t *testing.T) {
		search, gen := &fakeFinder{out: degraded}, &fakeFinder{out: curated}
		pf, _ := NewPolicyFinder(testLogger(), PolicySearchFirst, search, gen)
		out := pf.Find(context.Background(), "Nike", wardrobe.BrandInfo{})
		if !out.Fallback || gen.calls != 1 || len(out.Value) != 3 {
			t.Fatalf("unexpected outcome %+v", out)
		}
	})

	t.Run("search only has no secondary", func(t *testing.T) {
		search, gen := &fakeFinder{out: degraded}, &fakeFinder{out: curated}
		pf, _ := NewPolicyFinder(testLogger(), PolicySearchOnly, search, gen)
		out := pf.Find(context.Background(), "Nike", wardrobe.BrandInfo{})
		if !out.Fallback || gen.calls != 0 || len(out.Value) != 0 {
			t.Fatalf("unexpected outcome %+v", out)
		}
	})

	t.Run("missing primary", func(t *testing.T) {
		if _, err := NewPolicyFinder(testLogger(), PolicyGenerativeOnly, &fakeFinder{}, nil); err == nil {
			t.Fatalf("want error")
		}
	})
}

func TestParseAlternativesPolicy(t *testing.T) {
	if p, err := ParseAlternativesPolicy(""); err != nil || p != PolicySearchFirst {
		t.Fatalf("default: got=%q err=%v", p, err)
	}
	if p, err := ParseAlternativesPolicy(" Generative_Only "); err != nil || p != PolicyGenerativeOnly {
		t.Fatalf("generative_only: got=%q err=%v", p, err)
	}
	if _, err := ParseAlternativesPolicy("random"); err == nil {
		t.Fatalf("unknown: want error")
	}
}
