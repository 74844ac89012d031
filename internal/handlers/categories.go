// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the shop admin API.
// Handlers are grouped by concern and receive their dependencies through
// the handler struct.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopadmin/internal/category"
)

// CategoryRepository loads and saves the whole category forest.
type CategoryRepository interface {
	Load(ctx context.Context) (*category.Tree, error)
	Save(ctx context.Context, tree *category.Tree) error
}

// DraftRepository keeps category trees between editing requests.
type DraftRepository interface {
	Create(ctx context.Context, tree *category.Tree) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*category.Tree, error)
	Put(ctx context.Context, id uuid.UUID, tree *category.Tree) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Categories groups the category tree endpoints. Edits go to a draft and
// reach the database only through Save.
type Categories struct {
	store  CategoryRepository
	drafts DraftRepository
}

// NewCategories creates the category handler group.
func NewCategories(store CategoryRepository, drafts DraftRepository) *Categories {
	return &Categories{store: store, drafts: drafts}
}

// draftResponse is returned by every draft endpoint so the UI can re-render
// the live tree after each edit.
type draftResponse struct {
	DraftID    uuid.UUID       `json:"draft_id"`
	Ref        category.Ref    `json:"ref,omitempty"`
	Categories []category.Node `json:"categories"`
}

// Tree returns the stored category tree.
func (c *Categories) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := c.store.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": tree.Roots()})
}

// DraftCreate opens an editing session on the stored tree.
func (c *Categories) DraftCreate(w http.ResponseWriter, r *http.Request) {
	tree, err := c.store.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := c.drafts.Create(r.Context(), tree)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("category draft opened", "draft", id, "categories", tree.Len())
	writeJSON(w, http.StatusCreated, draftResponse{DraftID: id, Categories: tree.Roots()})
}

// DraftGet returns the draft's current tree.
func (c *Categories) DraftGet(w http.ResponseWriter, r *http.Request) {
	id, tree, err := c.loadDraft(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{DraftID: id, Categories: tree.Roots()})
}

// DraftDiscard drops a draft without saving.
func (c *Categories) DraftDiscard(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.drafts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddRoot appends a root category to the draft.
func (c *Categories) AddRoot(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c.edit(w, r, http.StatusCreated, func(tree *category.Tree) (category.Ref, error) {
		return tree.AddRoot(req.Name), nil
	})
}

// AddChild appends a subcategory under the node in the URL.
func (c *Categories) AddChild(w http.ResponseWriter, r *http.Request) {
	parent, err := nodeRef(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req nameRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c.edit(w, r, http.StatusCreated, func(tree *category.Tree) (category.Ref, error) {
		return tree.AddChild(parent, req.Name)
	})
}

// UpdateNode renames a node and/or changes its description.
func (c *Categories) UpdateNode(w http.ResponseWriter, r *http.Request) {
	ref, err := nodeRef(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c.edit(w, r, http.StatusOK, func(tree *category.Tree) (category.Ref, error) {
		if !tree.Contains(ref) {
			return 0, fmt.Errorf("%w: ref %d", category.ErrNotFound, ref)
		}
		if req.Name != nil {
			if err := tree.Rename(ref, *req.Name); err != nil {
				return 0, err
			}
		}
		if req.Description != nil {
			if err := tree.SetDescription(ref, *req.Description); err != nil {
				return 0, err
			}
		}
		return ref, nil
	})
}

// MoveNode re-parents a node and optionally places it among its siblings.
func (c *Categories) MoveNode(w http.ResponseWriter, r *http.Request) {
	ref, err := nodeRef(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req moveRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	parent := category.NoParent
	if req.Parent != nil {
		parent = category.Ref(*req.Parent)
		if parent == category.NoParent {
			writeError(w, r, fmt.Errorf("%w: parent ref 0 does not exist; use null to move to the top level", errBadRequest))
			return
		}
	}
	c.edit(w, r, http.StatusOK, func(tree *category.Tree) (category.Ref, error) {
		if err := tree.Move(ref, parent); err != nil {
			return 0, err
		}
		if req.Position != nil {
			if err := tree.Reorder(ref, *req.Position); err != nil {
				return 0, err
			}
		}
		return ref, nil
	})
}

// RemoveNode deletes a node together with all of its subcategories.
func (c *Categories) RemoveNode(w http.ResponseWriter, r *http.Request) {
	ref, err := nodeRef(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.edit(w, r, http.StatusOK, func(tree *category.Tree) (category.Ref, error) {
		return 0, tree.Remove(ref)
	})
}

// Save writes the draft to the database. The draft stays open so editing
// can continue; it now carries the ids assigned by the database.
func (c *Categories) Save(w http.ResponseWriter, r *http.Request) {
	id, tree, err := c.loadDraft(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.store.Save(r.Context(), tree); err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.drafts.Put(r.Context(), id, tree); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("category draft saved", "draft", id, "categories", tree.Len())
	writeJSON(w, http.StatusOK, draftResponse{DraftID: id, Categories: tree.Roots()})
}

// edit applies fn to the draft named in the URL and stores the result.
// Tree operations leave the tree untouched on error, but the draft is only
// written back on success.
func (c *Categories) edit(w http.ResponseWriter, r *http.Request, status int, fn func(*category.Tree) (category.Ref, error)) {
	id, tree, err := c.loadDraft(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := fn(tree)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.drafts.Put(r.Context(), id, tree); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, draftResponse{DraftID: id, Ref: ref, Categories: tree.Roots()})
}

func (c *Categories) loadDraft(r *http.Request) (uuid.UUID, *category.Tree, error) {
	id, err := draftID(r)
	if err != nil {
		return uuid.Nil, nil, err
	}
	tree, err := c.drafts.Get(r.Context(), id)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return id, tree, nil
}

func draftID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid draft id", errBadRequest)
	}
	return id, nil
}

func nodeRef(r *http.Request) (category.Ref, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, "ref"), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: invalid category ref", errBadRequest)
	}
	return category.Ref(v), nil
}
