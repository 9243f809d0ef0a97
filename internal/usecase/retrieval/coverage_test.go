package retrieval

import (
	"testing"

	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

func TestSelectCoveringSet_PicksBestCoverageFirst(t *testing.T) {
	candidates := []recipe.Recipe{
		doc("1", "shrimp, garlic"),
		doc("2", "rice, butter"),
		doc("3", "shrimp, rice, lime"),
	}

	got := SelectCoveringSet("shrimp, rice", candidates, 5, 0)

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 selection, got %d: %+v", len(got), got)
	}
	if got[0].ID != "3" {
		t.Errorf("expected recipe 3 (covers both tokens), got %s", got[0].ID)
	}
}

func TestSelectCoveringSet_TieBreakFirstSeen(t *testing.T) {
	candidates := []recipe.Recipe{
		doc("a", "shrimp, garlic"),
		doc("b", "shrimp, butter"),
	}

	got := SelectCoveringSet("shrimp", candidates, 5, 0)

	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected first-seen candidate on tie, got %+v", got)
	}
}

func TestSelectCoveringSet_MultipleRounds(t *testing.T) {
	candidates := []recipe.Recipe{
		doc("1", "shrimp, garlic"),
		doc("2", "rice, butter"),
		doc("3", "lime, salt"),
	}

	got := SelectCoveringSet("shrimp rice", candidates, 5, 0)

	if len(got) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestSelectCoveringSet_StopsOnZeroOverlap(t *testing.T) {
	candidates := []recipe.Recipe{
		doc("1", "tofu, kale"),
		doc("2", "beans, corn"),
	}

	got := SelectCoveringSet("shrimp rice", candidates, 5, 0)

	if len(got) != 0 {
		t.Fatalf("expected empty selection on zero overlap, got %+v", got)
	}
}

func TestSelectCoveringSet_RespectsNumResults(t *testing.T) {
	candidates := []recipe.Recipe{
		doc("1", "a"),
		doc("2", "b"),
		doc("3", "c"),
	}

	got := SelectCoveringSet("a b c", candidates, 2, 0)

	if len(got) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(got))
	}
}

func TestSelectCoveringSet_EmptyQuery(t *testing.T) {
	candidates := []recipe.Recipe{doc("1", "shrimp")}

	if got := SelectCoveringSet("", candidates, 5, 0); len(got) != 0 {
		t.Fatalf("expected empty selection for empty query, got %+v", got)
	}
}

func TestSelectCoveringSet_EmptyPool(t *testing.T) {
	if got := SelectCoveringSet("shrimp", nil, 5, 0); len(got) != 0 {
		t.Fatalf("expected empty selection for empty pool, got %+v", got)
	}
}

func TestSelectCoveringSet_TimeBudgetExcludesSlowRecipes(t *testing.T) {
	slow := doc("slow", "shrimp, rice")
	slow.PrepMinutes = intPtr(999999)

	unknown := doc("unknown", "shrimp, rice")
	unknown.PrepMinutes = nil

	fast := doc("fast", "shrimp")

	got := SelectCoveringSet("shrimp rice", []recipe.Recipe{slow, unknown, fast}, 5, 60)

	if len(got) != 1 || got[0].ID != "fast" {
		t.Fatalf("expected only the fast recipe, got %+v", got)
	}
}

func TestSelectCoveringSet_CoverageMonotonicity(t *testing.T) {
	candidates := []recipe.Recipe{
		doc("1", "shrimp garlic lime"),
		doc("2", "rice butter"),
		doc("3", "salt pepper"),
		doc("4", "shrimp rice"),
	}

	got := SelectCoveringSet("shrimp rice garlic lime salt", candidates, 10, 0)

	// Every selected recipe must have contributed at least one new token,
	// so the selection can never exceed the query token count.
	if len(got) > 5 {
		t.Fatalf("selection exceeds query token count: %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID == got[i-1].ID {
			t.Fatal("same recipe selected twice")
		}
	}
}
