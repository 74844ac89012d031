// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

type node struct {
	id          int64
	name        string
	description string
	parent      Ref
	children    []Ref
}

// Tree is a forest of categories edited by a single session. It is not safe
// for concurrent use.
type Tree struct {
	nodes map[Ref]*node
	roots []Ref
	next  Ref

	// baseline holds the persisted ids the tree was loaded or last saved
	// with. Ids in the baseline that are no longer in the tree are deleted
	// on save.
	baseline map[int64]struct{}
}

// New returns an empty forest.
func New() *Tree {
	return &Tree{
		nodes:    make(map[Ref]*node),
		next:     1,
		baseline: make(map[int64]struct{}),
	}
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Contains reports whether ref resolves to a live node.
func (t *Tree) Contains(ref Ref) bool {
	_, ok := t.nodes[ref]
	return ok
}

// AddRoot appends a new root. An empty name is accepted while editing and
// rejected by Validate at save time.
func (t *Tree) AddRoot(name string) Ref {
	ref := t.alloc(strings.TrimSpace(name), NoParent)
	t.roots = append(t.roots, ref)
	return ref
}

// AddChild appends a new child under parent.
func (t *Tree) AddChild(parent Ref, name string) (Ref, error) {
	p, err := t.lookup(parent)
	if err != nil {
		return NoParent, err
	}
	ref := t.alloc(strings.TrimSpace(name), parent)
	p.children = append(p.children, ref)
	return ref, nil
}

// Rename sets the name of a node.
func (t *Tree) Rename(ref Ref, name string) error {
	n, err := t.lookup(ref)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := checkName(name); err != nil {
		return err
	}
	n.name = name
	return nil
}

// SetDescription sets the optional description of a node.
func (t *Tree) SetDescription(ref Ref, description string) error {
	n, err := t.lookup(ref)
	if err != nil {
		return err
	}
	n.description = strings.TrimSpace(description)
	return nil
}

// Remove detaches a node together with its whole subtree.
func (t *Tree) Remove(ref Ref) error {
	if _, err := t.lookup(ref); err != nil {
		return err
	}
	t.detach(ref)

	stack := []Ref{ref}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.nodes[cur].children...)
		delete(t.nodes, cur)
	}
	return nil
}

// Move re-parents a node, appending it to the new parent's children.
// NoParent promotes the node to a root.
func (t *Tree) Move(ref, newParent Ref) error {
	n, err := t.lookup(ref)
	if err != nil {
		return err
	}
	if newParent != NoParent {
		if _, err := t.lookup(newParent); err != nil {
			return err
		}
		for p := newParent; p != NoParent; p = t.nodes[p].parent {
			if p == ref {
				return fmt.Errorf("%w: %d cannot move under itself or its descendant %d", ErrCycle, ref, newParent)
			}
		}
	}

	t.detach(ref)
	n.parent = newParent
	if newParent == NoParent {
		t.roots = append(t.roots, ref)
	} else {
		p := t.nodes[newParent]
		p.children = append(p.children, ref)
	}
	return nil
}

// Reorder moves a node to position within its sibling list. Positions past
// either end are clamped.
func (t *Tree) Reorder(ref Ref, position int) error {
	if _, err := t.lookup(ref); err != nil {
		return err
	}
	siblings := t.siblings(ref)
	i := slices.Index(*siblings, ref)
	*siblings = slices.Delete(*siblings, i, i+1)
	position = max(0, min(position, len(*siblings)))
	*siblings = slices.Insert(*siblings, position, ref)
	return nil
}

// Get returns a view of the node and its subtree.
func (t *Tree) Get(ref Ref) (Node, error) {
	if _, err := t.lookup(ref); err != nil {
		return Node{}, err
	}
	return t.view(ref), nil
}

// Roots returns views of every root in order.
func (t *Tree) Roots() []Node {
	out := make([]Node, 0, len(t.roots))
	for _, ref := range t.roots {
		out = append(out, t.view(ref))
	}
	return out
}

// Validate checks the field rules that editing tolerates transiently:
// every name must be non-empty, fit the column, and be unique across the
// forest.
func (t *Tree) Validate() error {
	seen := make(map[string]Ref, len(t.nodes))
	for row := range t.Flatten() {
		if err := checkName(row.Name); err != nil {
			return fmt.Errorf("category %d: %w", row.Ref, err)
		}
		if other, dup := seen[row.Name]; dup {
			return fmt.Errorf("%w: name %q is used by categories %d and %d", ErrValidation, row.Name, other, row.Ref)
		}
		seen[row.Name] = row.Ref
	}
	return nil
}

// Baseline returns the persisted ids the tree was loaded or last saved with.
func (t *Tree) Baseline() []int64 {
	ids := make([]int64, 0, len(t.baseline))
	for id := range t.baseline {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MarkSaved records the ids storage assigned to new nodes and resets the
// baseline to the ids now present in the tree.
func (t *Tree) MarkSaved(assigned map[Ref]int64) error {
	for ref, id := range assigned {
		n, err := t.lookup(ref)
		if err != nil {
			return err
		}
		if n.id != 0 && n.id != id {
			return fmt.Errorf("%w: category %d already has id %d", ErrIntegrity, ref, n.id)
		}
	}
	for ref, id := range assigned {
		t.nodes[ref].id = id
	}

	t.baseline = make(map[int64]struct{}, len(t.nodes))
	for _, n := range t.nodes {
		if n.id != 0 {
			t.baseline[n.id] = struct{}{}
		}
	}
	return nil
}

func (t *Tree) alloc(name string, parent Ref) Ref {
	ref := t.next
	t.next++
	t.nodes[ref] = &node{name: name, parent: parent}
	return ref
}

func (t *Tree) lookup(ref Ref) (*node, error) {
	n, ok := t.nodes[ref]
	if !ok {
		return nil, fmt.Errorf("%w: ref %d", ErrNotFound, ref)
	}
	return n, nil
}

// siblings returns the list that holds ref: the roots or its parent's children.
func (t *Tree) siblings(ref Ref) *[]Ref {
	if p := t.nodes[ref].parent; p != NoParent {
		return &t.nodes[p].children
	}
	return &t.roots
}

func (t *Tree) detach(ref Ref) {
	siblings := t.siblings(ref)
	if i := slices.Index(*siblings, ref); i >= 0 {
		*siblings = slices.Delete(*siblings, i, i+1)
	}
}

func (t *Tree) view(ref Ref) Node {
	n := t.nodes[ref]
	v := Node{
		Ref:         ref,
		ID:          n.id,
		Name:        n.name,
		Description: n.description,
		ParentID:    t.parentID(n),
		Children:    make([]Node, 0, len(n.children)),
	}
	for _, c := range n.children {
		v.Children = append(v.Children, t.view(c))
	}
	return v
}

func (t *Tree) parentID(n *node) *int64 {
	if n.parent == NoParent {
		return nil
	}
	if id := t.nodes[n.parent].id; id != 0 {
		return &id
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("%w: name is too long (max %d characters)", ErrValidation, MaxNameLen)
	}
	return nil
}
