package store

import (
	"cmp"
	"fmt"
	"slices"

	"shopadmin/internal/category"
)

// savePlan is the ordered batch of writes for one CategoryStore.Save.
type savePlan struct {
	inserts []category.Row // parent-first
	updates []category.Row
	deletes []int64 // deepest-first
}

// planSave diffs the flattened tree against the stored rows. rows must be in
// flatten order so every new parent precedes its new children.
func planSave(rows []category.Row, baseline []int64, current []category.Row) (savePlan, error) {
	// Depth lookups below rely on the stored parents being acyclic.
	if _, err := category.FromFlat(current); err != nil {
		return savePlan{}, fmt.Errorf("stored categories: %w", err)
	}

	byID := make(map[int64]category.Row, len(current))
	for _, r := range current {
		byID[r.ID] = r
	}

	var plan savePlan
	inTree := make(map[int64]bool, len(rows))
	for _, r := range rows {
		if r.ID == 0 {
			plan.inserts = append(plan.inserts, r)
			continue
		}
		inTree[r.ID] = true
		cur, ok := byID[r.ID]
		if !ok {
			return savePlan{}, fmt.Errorf("%w: category %d (%q) was deleted by another session", category.ErrConflict, r.ID, r.Name)
		}
		if rowChanged(r, cur) {
			plan.updates = append(plan.updates, r)
		}
	}

	depth := make(map[int64]int, len(current))
	var depthOf func(id int64) int
	depthOf = func(id int64) int {
		if d, ok := depth[id]; ok {
			return d
		}
		d := 0
		if p := byID[id].ParentID; p != nil {
			d = depthOf(*p) + 1
		}
		depth[id] = d
		return d
	}

	for _, id := range baseline {
		if inTree[id] {
			continue
		}
		// Already gone: nothing to delete.
		if _, ok := byID[id]; !ok {
			continue
		}
		plan.deletes = append(plan.deletes, id)
	}
	slices.SortFunc(plan.deletes, func(a, b int64) int {
		if c := cmp.Compare(depthOf(b), depthOf(a)); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})

	return plan, nil
}

// rowChanged reports whether the tree row differs from its stored version.
func rowChanged(r, stored category.Row) bool {
	if r.Name != stored.Name || r.Description != stored.Description || r.Position != stored.Position {
		return true
	}
	switch {
	case r.ParentID != nil:
		return stored.ParentID == nil || *stored.ParentID != *r.ParentID
	case r.ParentRef != category.NoParent:
		// The new parent is inserted in this save.
		return true
	default:
		return stored.ParentID != nil
	}
}
