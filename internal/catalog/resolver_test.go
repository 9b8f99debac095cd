package catalog

import "testing"

func intPtr(v int) *int { return &v }

func sampleProduct() Product {
	return Product{
		ID:        "p1",
		Title:     "Handwoven Stole",
		BasePrice: 500,
		Inventory: Inventory{Available: 12, Total: 20},
		Variants: []VariantOption{
			{
				Name:      "Indigo / Large",
				Options:   []string{"Indigo", "Large"},
				Price:     intPtr(650),
				Inventory: &Inventory{Available: 3, Total: 5},
			},
			{
				Name:    "Indigo",
				Options: []string{"Indigo"},
				Price:   intPtr(600),
			},
			{
				Name:      "Madder",
				Options:   []string{"Madder"},
				Inventory: &Inventory{Available: 7, Total: 10},
			},
		},
	}
}

func TestResolveNoAxesReturnsRoot(t *testing.T) {
	product := Product{ID: "p2", BasePrice: 250, Inventory: Inventory{Available: 4}}
	got := Resolve(product, map[string]string{"Color": "Blue"})
	if got.Price != 250 || got.Available != 4 {
		t.Fatalf("expected root resolution, got %+v", got)
	}
}

func TestResolveEmptySelectionReturnsRoot(t *testing.T) {
	got := Resolve(sampleProduct(), nil)
	if got.Price != 500 || got.Available != 12 {
		t.Fatalf("expected root resolution, got %+v", got)
	}
}

func TestResolveFullCombinationWins(t *testing.T) {
	got := Resolve(sampleProduct(), map[string]string{"Color": "Indigo", "Size": "Large"})
	if got.Price != 650 || got.Available != 3 {
		t.Fatalf("expected Indigo/Large overrides, got %+v", got)
	}
}

func TestResolveFirstDeclaredTieBreak(t *testing.T) {
	// only Indigo selected: the two-option combination is not satisfied,
	// the single-option Indigo entry is
	got := Resolve(sampleProduct(), map[string]string{"Color": "Indigo"})
	if got.Price != 600 {
		t.Fatalf("expected Indigo price 600, got %+v", got)
	}
	// no inventory override on the Indigo entry: root availability applies
	if got.Available != 12 {
		t.Fatalf("expected root availability, got %+v", got)
	}
}

func TestResolvePartialOverrideFallsBackPerField(t *testing.T) {
	got := Resolve(sampleProduct(), map[string]string{"Color": "Madder"})
	if got.Price != 500 {
		t.Fatalf("expected root price for Madder, got %+v", got)
	}
	if got.Available != 7 {
		t.Fatalf("expected Madder availability override, got %+v", got)
	}
}

func TestResolveNoMatchFallsBackToRoot(t *testing.T) {
	got := Resolve(sampleProduct(), map[string]string{"Color": "Turmeric"})
	if got.Price != 500 || got.Available != 12 {
		t.Fatalf("expected root fallback, got %+v", got)
	}
}

func TestResolveMatchesByMembershipNotAxisName(t *testing.T) {
	// the option value appears under a different axis name in the selection;
	// membership matching still satisfies the combination
	got := Resolve(sampleProduct(), map[string]string{"Shade": "Indigo"})
	if got.Price != 600 {
		t.Fatalf("expected membership match, got %+v", got)
	}
}

func TestResolveReInvokedPerSelectionChange(t *testing.T) {
	product := sampleProduct()
	selection := map[string]string{}

	steps := []struct {
		axis, option  string
		wantPrice     int
		wantAvailable int
	}{
		{"Color", "Indigo", 600, 12},
		{"Size", "Large", 650, 3},
		{"Color", "Madder", 500, 7},
	}
	for _, step := range steps {
		selection[step.axis] = step.option
		got := Resolve(product, selection)
		if got.Price != step.wantPrice || got.Available != step.wantAvailable {
			t.Fatalf("after %s=%s: expected {%d %d}, got %+v",
				step.axis, step.option, step.wantPrice, step.wantAvailable, got)
		}
	}
}

func TestResolveEmptyOptionListMatchesVacuously(t *testing.T) {
	product := Product{
		ID:        "p3",
		BasePrice: 400,
		Inventory: Inventory{Available: 9, Total: 9},
		Variants: []VariantOption{
			{Name: "Default", Options: []string{}, Price: intPtr(350)},
			{Name: "Indigo", Options: []string{"Indigo"}, Price: intPtr(600)},
		},
	}

	// an empty option list is a subset of any selection, so the degenerate
	// combination wins on declaration order
	got := Resolve(product, map[string]string{"Color": "Indigo"})
	if got.Price != 350 || got.Available != 9 {
		t.Fatalf("expected vacuous match on first combination, got %+v", got)
	}

	// an empty selection still short-circuits to the root
	got = Resolve(product, nil)
	if got.Price != 400 {
		t.Fatalf("expected root on empty selection, got %+v", got)
	}
}
