package retrieval

import (
	"testing"

	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

func TestDeduplicate_KeepsFirstOccurrence(t *testing.T) {
	docs := []recipe.Recipe{
		{ID: "a", Name: "first"},
		{ID: "b"},
		{ID: "a", Name: "second"},
		{ID: "c"},
	}

	got := Deduplicate(docs)

	if len(got) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(got))
	}
	if got[0].Name != "first" {
		t.Error("first occurrence must survive")
	}
	if got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("order changed: %+v", got)
	}
}

func TestDeduplicate_FallsBackToNameAndTimes(t *testing.T) {
	docs := []recipe.Recipe{
		{Name: "stew", PrepMinutes: intPtr(10), CookMinutes: intPtr(60)},
		{Name: "stew", PrepMinutes: intPtr(10), CookMinutes: intPtr(60)},
		{Name: "stew", PrepMinutes: intPtr(5), CookMinutes: intPtr(60)},
	}

	got := Deduplicate(docs)

	if len(got) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(got))
	}
}

func TestFilterByMaxTime_NoBudgetPassesAll(t *testing.T) {
	docs := []recipe.Recipe{doc("1", "x"), doc("2", "y")}

	if got := FilterByMaxTime(docs, 0); len(got) != 2 {
		t.Fatalf("expected all docs without budget, got %d", len(got))
	}
}

func TestFilterByMaxTime_ExcludesOverBudget(t *testing.T) {
	fast := doc("fast", "x") // 10+10 minutes
	slow := doc("slow", "y")
	slow.CookMinutes = intPtr(120)

	got := FilterByMaxTime([]recipe.Recipe{fast, slow}, 60)

	if len(got) != 1 || got[0].ID != "fast" {
		t.Fatalf("expected only fast recipe, got %+v", got)
	}
}

func TestFilterByMaxTime_UnknownTimeExcluded(t *testing.T) {
	unknown := doc("unknown", "x")
	unknown.CookMinutes = nil

	got := FilterByMaxTime([]recipe.Recipe{unknown}, 600)

	if len(got) != 0 {
		t.Fatalf("unknown time must never pass a finite budget, got %+v", got)
	}
}
