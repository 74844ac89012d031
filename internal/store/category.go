// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL data access for the shop admin.
// Each store wraps a *sql.DB and exposes context-aware methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"shopadmin/internal/category"
)

// PostgreSQL error codes mapped onto the category error taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// CategoryStore persists the category forest in the self-referencing
// categories table.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore. The pool is owned by the
// caller.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `category_id, parent_id, category_name, category_description, sort_order`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scanCategory scans a row into a category.Row.
func scanCategory(scanner interface{ Scan(...any) error }) (category.Row, error) {
	var (
		r      category.Row
		parent sql.NullInt64
		desc   sql.NullString
	)
	if err := scanner.Scan(&r.ID, &parent, &r.Name, &desc, &r.Position); err != nil {
		return category.Row{}, err
	}
	if parent.Valid {
		r.ParentID = &parent.Int64
	}
	r.Description = desc.String
	return r, nil
}

func listCategories(ctx context.Context, q queryer, suffix string) ([]category.Row, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY parent_id NULLS FIRST, sort_order, category_id`+suffix)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []category.Row
	for rows.Next() {
		r, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// List returns every stored category as a flat row.
func (s *CategoryStore) List(ctx context.Context) ([]category.Row, error) {
	return listCategories(ctx, s.db, "")
}

// Load reads the whole table and rebuilds the forest. Stored data is
// checked like any other input; a broken hierarchy yields ErrIntegrity.
func (s *CategoryStore) Load(ctx context.Context) (*category.Tree, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := category.FromFlat(rows)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return tree, nil
}

// Save writes the difference between tree and the stored rows in a single
// transaction. New categories are inserted parent-first, changed ones
// updated, and categories removed from the tree since it was loaded are
// deleted deepest-first. Nothing is written when the tree is invalid, and
// any failure rolls the whole batch back. On success the tree learns the
// ids assigned to its new categories.
func (s *CategoryStore) Save(ctx context.Context, tree *category.Tree) error {
	if err := tree.Validate(); err != nil {
		return err
	}
	rows := tree.Rows()
	if _, err := category.FromFlat(rows); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := listCategories(ctx, tx, " FOR UPDATE")
	if err != nil {
		return err
	}
	plan, err := planSave(rows, tree.Baseline(), current)
	if err != nil {
		return err
	}

	assigned := make(map[category.Ref]int64, len(plan.inserts))
	for _, r := range plan.inserts {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO categories (category_name, category_description, parent_id, sort_order)
			VALUES ($1, NULLIF($2, ''), $3, $4)
			RETURNING category_id`,
			r.Name, r.Description, parentArg(r, assigned), r.Position,
		).Scan(&id)
		if err != nil {
			return writeError("insert category "+r.Name, err)
		}
		assigned[r.Ref] = id
	}

	for _, r := range plan.updates {
		res, err := tx.ExecContext(ctx, `
			UPDATE categories SET
				category_name = $1, category_description = NULLIF($2, ''),
				parent_id = $3, sort_order = $4, updated_at = NOW()
			WHERE category_id = $5`,
			r.Name, r.Description, parentArg(r, assigned), r.Position, r.ID,
		)
		if err != nil {
			return writeError(fmt.Sprintf("update category %d", r.ID), err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: category %d no longer exists", category.ErrConflict, r.ID)
		}
	}

	for _, id := range plan.deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE category_id = $1`, id); err != nil {
			return writeError(fmt.Sprintf("delete category %d", id), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return writeError("commit categories", err)
	}

	slog.Info("categories saved",
		"inserted", len(plan.inserts),
		"updated", len(plan.updates),
		"deleted", len(plan.deletes),
	)
	return tree.MarkSaved(assigned)
}

// parentArg resolves the parent_id to write for r. Parents inserted earlier
// in the same save are looked up by ref.
func parentArg(r category.Row, assigned map[category.Ref]int64) any {
	if r.ParentID != nil {
		return *r.ParentID
	}
	if r.ParentRef != category.NoParent {
		return assigned[r.ParentRef]
	}
	return nil
}

// writeError maps constraint violations onto the category error taxonomy.
func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w: category name already exists", op, category.ErrValidation)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: parent category no longer exists", op, category.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
