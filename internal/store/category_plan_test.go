package store

import (
	"errors"
	"reflect"
	"testing"

	"shopadmin/internal/category"
)

func idPtr(v int64) *int64 { return &v }

// storedRows is the persisted version of:
//
//	1 Electronics
//	  2 Phones
//	    3 Android
//	  4 Laptops
//	5 Books
func storedRows() []category.Row {
	return []category.Row{
		{ID: 1, Name: "Electronics", Position: 0},
		{ID: 5, Name: "Books", Position: 1},
		{ID: 2, ParentID: idPtr(1), Name: "Phones", Position: 0},
		{ID: 4, ParentID: idPtr(1), Name: "Laptops", Position: 1},
		{ID: 3, ParentID: idPtr(2), Name: "Android", Position: 0},
	}
}

func loadedTree(t *testing.T) (*category.Tree, map[string]category.Ref) {
	t.Helper()
	tree, err := category.FromFlat(storedRows())
	if err != nil {
		t.Fatalf("FromFlat: %v", err)
	}
	refs := map[string]category.Ref{}
	for row := range tree.Flatten() {
		refs[row.Name] = row.Ref
	}
	return tree, refs
}

func TestPlanSaveUnchanged(t *testing.T) {
	tree, _ := loadedTree(t)
	plan, err := planSave(tree.Rows(), tree.Baseline(), storedRows())
	if err != nil {
		t.Fatalf("planSave: %v", err)
	}
	if len(plan.inserts)+len(plan.updates)+len(plan.deletes) != 0 {
		t.Errorf("expected no writes, got %+v", plan)
	}
}

func TestPlanSaveInsertsParentFirst(t *testing.T) {
	tree, refs := loadedTree(t)
	garden := tree.AddRoot("Garden")
	tools, _ := tree.AddChild(garden, "Tools")
	_, _ = tree.AddChild(tools, "Shovels")
	_, _ = tree.AddChild(refs["Phones"], "iPhone")

	plan, err := planSave(tree.Rows(), tree.Baseline(), storedRows())
	if err != nil {
		t.Fatalf("planSave: %v", err)
	}

	inserted := map[category.Ref]bool{}
	var names []string
	for _, r := range plan.inserts {
		if r.ParentRef != category.NoParent && r.ParentID == nil && !inserted[r.ParentRef] {
			t.Errorf("%s inserted before its new parent", r.Name)
		}
		inserted[r.Ref] = true
		names = append(names, r.Name)
	}
	if len(names) != 4 {
		t.Errorf("inserts: got %v, want 4 rows", names)
	}
	if len(plan.updates) != 0 || len(plan.deletes) != 0 {
		t.Errorf("unexpected writes: %+v", plan)
	}
}

func TestPlanSaveUpdates(t *testing.T) {
	tree, refs := loadedTree(t)
	_ = tree.Rename(refs["Laptops"], "Notebooks")
	_ = tree.Move(refs["Android"], refs["Electronics"])

	plan, err := planSave(tree.Rows(), tree.Baseline(), storedRows())
	if err != nil {
		t.Fatalf("planSave: %v", err)
	}

	got := map[string]category.Row{}
	for _, r := range plan.updates {
		got[r.Name] = r
	}
	if _, ok := got["Notebooks"]; !ok {
		t.Error("renamed category not updated")
	}
	android, ok := got["Android"]
	if !ok {
		t.Fatal("moved category not updated")
	}
	if android.ParentID == nil || *android.ParentID != 1 || android.Position != 2 {
		t.Errorf("android: got parent %v position %d, want parent 1 position 2", android.ParentID, android.Position)
	}
	if len(plan.updates) != 2 {
		t.Errorf("updates: got %d, want 2", len(plan.updates))
	}
}

func TestPlanSaveMoveUnderNewParent(t *testing.T) {
	tree, refs := loadedTree(t)
	gadgets := tree.AddRoot("Gadgets")
	_ = tree.Move(refs["Phones"], gadgets)

	plan, err := planSave(tree.Rows(), tree.Baseline(), storedRows())
	if err != nil {
		t.Fatalf("planSave: %v", err)
	}
	if len(plan.inserts) != 1 || plan.inserts[0].Name != "Gadgets" {
		t.Fatalf("inserts: got %+v", plan.inserts)
	}
	var phones *category.Row
	for i := range plan.updates {
		if plan.updates[i].Name == "Phones" {
			phones = &plan.updates[i]
		}
	}
	if phones == nil || phones.ParentRef != gadgets {
		t.Errorf("phones update: got %+v", phones)
	}
}

func TestPlanSaveDeletesDeepestFirst(t *testing.T) {
	tree, refs := loadedTree(t)
	if err := tree.Remove(refs["Electronics"]); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	plan, err := planSave(tree.Rows(), tree.Baseline(), storedRows())
	if err != nil {
		t.Fatalf("planSave: %v", err)
	}
	want := []int64{3, 4, 2, 1}
	if !reflect.DeepEqual(plan.deletes, want) {
		t.Errorf("deletes: got %v, want %v", plan.deletes, want)
	}
}

func TestPlanSaveSkipsRowsAlreadyGone(t *testing.T) {
	tree, refs := loadedTree(t)
	_ = tree.Remove(refs["Books"])

	var current []category.Row
	for _, r := range storedRows() {
		if r.ID != 5 {
			current = append(current, r)
		}
	}
	plan, err := planSave(tree.Rows(), tree.Baseline(), current)
	if err != nil {
		t.Fatalf("planSave: %v", err)
	}
	if len(plan.deletes) != 0 {
		t.Errorf("deletes: got %v, want none", plan.deletes)
	}
}

func TestPlanSaveConflict(t *testing.T) {
	tree, _ := loadedTree(t)

	var current []category.Row
	for _, r := range storedRows() {
		if r.ID != 4 {
			current = append(current, r)
		}
	}
	_, err := planSave(tree.Rows(), tree.Baseline(), current)
	if !errors.Is(err, category.ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestPlanSaveCorruptStorage(t *testing.T) {
	tree := category.New()
	current := []category.Row{
		{ID: 1, Name: "A", ParentID: idPtr(2)},
		{ID: 2, Name: "B", ParentID: idPtr(1)},
	}
	_, err := planSave(tree.Rows(), nil, current)
	if !errors.Is(err, category.ErrIntegrity) {
		t.Errorf("got %v, want ErrIntegrity", err)
	}
}

func TestRowChanged(t *testing.T) {
	base := category.Row{ID: 2, ParentID: idPtr(1), Name: "Phones", Position: 0}

	tests := []struct {
		name string
		edit func(r *category.Row)
		want bool
	}{
		{"same", func(r *category.Row) {}, false},
		{"renamed", func(r *category.Row) { r.Name = "Mobiles" }, true},
		{"described", func(r *category.Row) { r.Description = "x" }, true},
		{"reordered", func(r *category.Row) { r.Position = 3 }, true},
		{"new parent id", func(r *category.Row) { r.ParentID = idPtr(9) }, true},
		{"promoted", func(r *category.Row) { r.ParentID = nil }, true},
		{"unsaved parent", func(r *category.Row) { r.ParentID = nil; r.ParentRef = 7 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.edit(&r)
			if got := rowChanged(r, base); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
