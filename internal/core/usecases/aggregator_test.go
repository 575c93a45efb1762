package usecases_test

import (
	"testing"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/core/usecases"
)

func TestResultAggregator_AppendPage(t *testing.T) {
	agg := usecases.NewResultAggregator()

	added := agg.AppendPage(places("p1", "p2", "p3", "p4", "p5"))
	if len(added) != 5 {
		t.Fatalf("expected 5 appended, got %d", len(added))
	}

	added = agg.AppendPage(places("p5", "p6", "p7"))
	if got := ids(added); len(got) != 2 || got[0] != "p6" || got[1] != "p7" {
		t.Fatalf("expected [p6 p7] appended, got %v", got)
	}

	want := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	got := ids(agg.Current())
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestResultAggregator_DuplicateWithinPage(t *testing.T) {
	agg := usecases.NewResultAggregator()
	added := agg.AppendPage(places("a", "b", "a"))
	if len(added) != 2 || agg.Len() != 2 {
		t.Fatalf("expected 2 unique places, got appended=%d len=%d", len(added), agg.Len())
	}
}

func TestResultAggregator_FirstOccurrenceWins(t *testing.T) {
	agg := usecases.NewResultAggregator()
	first := place("a")
	first.Name = "first"
	second := place("a")
	second.Name = "second"

	agg.AppendPage([]domain.FoodLocation{first})
	agg.AppendPage([]domain.FoodLocation{second})

	if name := agg.Current()[0].Name; name != "first" {
		t.Errorf("expected first occurrence kept, got %q", name)
	}
}

func TestResultAggregator_CurrentIsCopy(t *testing.T) {
	agg := usecases.NewResultAggregator()
	agg.AppendPage(places("a"))

	snapshot := agg.Current()
	snapshot[0].Name = "mutated"

	if agg.Current()[0].Name == "mutated" {
		t.Error("Current must not expose internal storage")
	}
}

func TestResultAggregator_Reset(t *testing.T) {
	agg := usecases.NewResultAggregator()
	agg.AppendPage(places("a", "b"))
	agg.Reset()

	if agg.Len() != 0 || agg.Contains("a") {
		t.Fatal("expected empty aggregator after reset")
	}
	if added := agg.AppendPage(places("a")); len(added) != 1 {
		t.Error("expected previously seen ID to be accepted after reset")
	}
}
