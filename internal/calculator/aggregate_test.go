package calculator

import (
	"testing"

	"github.com/mmynk/godutch/internal/models"
)

func TestGroupByName(t *testing.T) {
	items := []models.Item{
		{ID: "1", Name: "rice"},
		{ID: "2", Name: "Rice"},
		{ID: "3", Name: "rice"},
		{ID: "4", Name: " rice"},
		{ID: "5", Name: "oil"},
	}

	groups := GroupByName(items)

	if len(groups) != 4 {
		t.Fatalf("expected 4 buckets, got %d: %v", len(groups), groups)
	}

	rice := groups["rice"]
	if len(rice) != 2 || rice[0].ID != "1" || rice[1].ID != "3" {
		t.Errorf("rice bucket = %+v, want items 1 then 3", rice)
	}

	// Every item lands in exactly one bucket.
	seen := make(map[string]int)
	for name, bucket := range groups {
		for _, item := range bucket {
			if item.Name != name {
				t.Errorf("item %s with name %q in bucket %q", item.ID, item.Name, name)
			}
			seen[item.ID]++
		}
	}
	for _, item := range items {
		if seen[item.ID] != 1 {
			t.Errorf("item %s appears %d times", item.ID, seen[item.ID])
		}
	}
}

func TestGroupByName_Empty(t *testing.T) {
	groups := GroupByName(nil)
	if groups == nil || len(groups) != 0 {
		t.Errorf("GroupByName(nil) = %v, want empty map", groups)
	}
}
