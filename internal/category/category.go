// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package category models the product category hierarchy as an in-memory
// forest. Nodes are addressed through Ref handles resolved against the tree
// on every call, so callers never hold pointers into the structure. The tree
// converts to and from the flat parent-referencing rows stored in the
// categories table.
package category

import (
	"errors"
)

// MaxNameLen mirrors the VARCHAR(255) category_name column.
const MaxNameLen = 255

// Error taxonomy. Callers match with errors.Is; messages carry the detail.
var (
	ErrValidation = errors.New("invalid category")
	ErrNotFound   = errors.New("category not found")
	ErrCycle      = errors.New("category move would create a cycle")
	ErrIntegrity  = errors.New("category hierarchy is inconsistent")
	ErrConflict   = errors.New("category was modified concurrently")
)

// Ref is an opaque handle to a node within one Tree. Refs are never reused:
// once a node is removed its Ref stops resolving.
type Ref uint64

// NoParent is the zero Ref. As a Move target it promotes a node to a root.
const NoParent Ref = 0

// Node is a read-only view of a category and its subtree.
type Node struct {
	Ref         Ref    `json:"ref"`
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id"`
	Children    []Node `json:"children"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Row is one flattened category, shaped like a row of the categories table.
//
// ParentID is set when the parent has been persisted. ParentRef always names
// the parent within the tree the row came from, so rows for categories that
// have not been saved yet can still be linked.
type Row struct {
	Ref         Ref    `json:"ref,omitempty"`
	ParentRef   Ref    `json:"parent_ref,omitempty"`
	ID          int64  `json:"id,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// IsRoot reports whether the row has no parent.
func (r Row) IsRoot() bool {
	return r.ParentID == nil && r.ParentRef == NoParent
}
