package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// seedCategory is one sample category; children reference their parent by
// name.
type seedCategory struct {
	name        string
	description string
	parent      string
}

// seedCategories is the sample catalog inserted in development. Parents are
// listed before their children.
var seedCategories = []seedCategory{
	{name: "Electronics", description: "Devices and accessories"},
	{name: "Phones", parent: "Electronics"},
	{name: "Laptops", parent: "Electronics"},
	{name: "Accessories", parent: "Electronics"},
	{name: "Chargers", parent: "Accessories"},
	{name: "Home & Garden", description: "Everything for the house"},
	{name: "Kitchen", parent: "Home & Garden"},
	{name: "Clothing"},
}

// Seed populates the database with initial development data.
// It inserts a sample category tree if the categories table is empty.
func Seed(db *sql.DB) error {
	// Check if any categories exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(seedCategories))
	positions := make(map[string]int)
	for _, c := range seedCategories {
		var parent any
		if c.parent != "" {
			parent = ids[c.parent]
		}
		var id int64
		err := tx.QueryRow(`
			INSERT INTO categories (category_name, category_description, parent_id, sort_order)
			VALUES ($1, NULLIF($2, ''), $3, $4)
			RETURNING category_id
		`, c.name, c.description, parent, positions[c.parent]).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", c.name, err)
		}
		ids[c.name] = id
		positions[c.parent]++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample categories", "count", len(seedCategories))
	return nil
}
