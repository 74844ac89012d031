// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"cmp"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Flatten walks the forest depth-first, yielding every node after its
// parent. The sequence reads the live tree and can be ranged over again.
func (t *Tree) Flatten() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		t.walk(t.roots, yield)
	}
}

// Rows collects Flatten into a slice.
func (t *Tree) Rows() []Row {
	return slices.Collect(t.Flatten())
}

func (t *Tree) walk(refs []Ref, yield func(Row) bool) bool {
	for i, ref := range refs {
		n := t.nodes[ref]
		row := Row{
			Ref:         ref,
			ParentRef:   n.parent,
			ID:          n.id,
			ParentID:    t.parentID(n),
			Name:        n.name,
			Description: n.description,
			Position:    i,
		}
		if !yield(row) {
			return false
		}
		if !t.walk(n.children, yield) {
			return false
		}
	}
	return true
}

// FromFlat rebuilds a forest from rows. A row links to its parent by
// ParentID, or by ParentRef when the parent has no id yet. Siblings are
// ordered by Position, ties keeping input order. Non-zero Refs are kept so
// handles survive a round trip. Every persisted id joins the baseline.
//
// It fails with ErrIntegrity on duplicate ids or refs, parents that are not
// in the set, and cycles.
func FromFlat(rows []Row) (*Tree, error) {
	byID := make(map[int64]int, len(rows))
	byRef := make(map[Ref]int, len(rows))
	for i, r := range rows {
		if r.ID != 0 {
			if _, dup := byID[r.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate id %d", ErrIntegrity, r.ID)
			}
			byID[r.ID] = i
		}
		if r.Ref != NoParent {
			if _, dup := byRef[r.Ref]; dup {
				return nil, fmt.Errorf("%w: duplicate ref %d", ErrIntegrity, r.Ref)
			}
			byRef[r.Ref] = i
		}
	}

	var roots []int
	children := make(map[int][]int)
	for i, r := range rows {
		switch {
		case r.ParentID != nil:
			p, ok := byID[*r.ParentID]
			if !ok {
				return nil, fmt.Errorf("%w: %s references missing parent id %d", ErrIntegrity, rowLabel(r), *r.ParentID)
			}
			children[p] = append(children[p], i)
		case r.ParentRef != NoParent:
			p, ok := byRef[r.ParentRef]
			if !ok {
				return nil, fmt.Errorf("%w: %s references missing parent ref %d", ErrIntegrity, rowLabel(r), r.ParentRef)
			}
			children[p] = append(children[p], i)
		default:
			roots = append(roots, i)
		}
	}

	byPosition := func(a, b int) int { return cmp.Compare(rows[a].Position, rows[b].Position) }
	slices.SortStableFunc(roots, byPosition)
	for _, c := range children {
		slices.SortStableFunc(c, byPosition)
	}

	// Rows that no walk from a root reaches sit on a parent cycle.
	refs := make([]Ref, len(rows))
	visited := make([]bool, len(rows))
	next := Ref(1)
	for _, r := range rows {
		next = max(next, r.Ref+1)
	}
	var order []int
	stack := slices.Clone(roots)
	slices.Reverse(stack)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited[i] = true
		order = append(order, i)
		if refs[i] = rows[i].Ref; refs[i] == NoParent {
			refs[i] = next
			next++
		}
		for j := len(children[i]) - 1; j >= 0; j-- {
			stack = append(stack, children[i][j])
		}
	}
	for i, seen := range visited {
		if !seen {
			return nil, fmt.Errorf("%w: %s is part of a parent cycle", ErrIntegrity, rowLabel(rows[i]))
		}
	}

	t := New()
	t.next = next
	for _, i := range order {
		r := rows[i]
		n := &node{id: r.ID, name: r.Name, description: r.Description}
		for _, c := range children[i] {
			n.children = append(n.children, refs[c])
		}
		t.nodes[refs[i]] = n
		if r.ID != 0 {
			t.baseline[r.ID] = struct{}{}
		}
	}
	for _, i := range order {
		for _, c := range children[i] {
			t.nodes[refs[c]].parent = refs[i]
		}
	}
	for _, i := range roots {
		t.roots = append(t.roots, refs[i])
	}
	return t, nil
}

func rowLabel(r Row) string {
	if r.ID != 0 {
		return fmt.Sprintf("category id %d", r.ID)
	}
	return fmt.Sprintf("category %q", r.Name)
}

// treeJSON is the serialized form of a Tree: its rows plus the bookkeeping
// that rows alone cannot carry.
type treeJSON struct {
	Rows     []Row   `json:"rows"`
	Baseline []int64 `json:"baseline,omitempty"`
	Next     Ref     `json:"next"`
}

// MarshalJSON encodes the tree so an editing session can be resumed later
// with identical refs.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(treeJSON{
		Rows:     t.Rows(),
		Baseline: t.Baseline(),
		Next:     t.next,
	})
}

// UnmarshalJSON decodes a tree written by MarshalJSON.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromFlat(raw.Rows)
	if err != nil {
		return err
	}
	for _, id := range raw.Baseline {
		decoded.baseline[id] = struct{}{}
	}
	decoded.next = max(decoded.next, raw.Next)
	*t = *decoded
	return nil
}
