package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"reci/internal/model"
)

// RecipeRecord is a stored recipe plus the object keys of its images.
type RecipeRecord struct {
	Recipe       model.Recipe
	ImageKey     string
	ThumbnailKey string
	CreatedAt    string
}

// InsertRecipe stores a new recipe. An existing id yields model.ErrDuplicate.
func InsertRecipe(db *sql.DB, rec RecipeRecord) error {
	r := rec.Recipe
	if r.IsDraft() {
		return model.ErrDraft
	}
	steps, err := json.Marshal(r.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO recipes (id, title, description, mime_type, steps, image_key, thumbnail_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := db.Exec(query, string(r.ID), r.Title, r.Description, string(r.MimeType), string(steps),
		nullIfEmpty(rec.ImageKey), nullIfEmpty(rec.ThumbnailKey))
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrDuplicate, r.ID)
	}
	return nil
}

// ListRecipes returns up to limit recipes older than afterID, newest first.
// more reports whether further recipes exist past the returned batch.
func ListRecipes(db *sql.DB, afterID string, limit int) (records []RecipeRecord, more bool, err error) {
	query := `
		SELECT id, title, description, mime_type, steps, COALESCE(image_key, ''), COALESCE(thumbnail_key, ''), created_at
		FROM recipes
		WHERE (? = '' OR id < ?)
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.Query(query, afterID, afterID, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, false, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating recipe rows: %w", err)
	}

	if len(records) > limit {
		return records[:limit], true, nil
	}
	return records, false, nil
}

// GetRecipe retrieves a single recipe by id.
func GetRecipe(db *sql.DB, id model.RecipeID) (RecipeRecord, error) {
	query := `
		SELECT id, title, description, mime_type, steps, COALESCE(image_key, ''), COALESCE(thumbnail_key, ''), created_at
		FROM recipes
		WHERE id = ?
	`
	rec, err := scanRecipe(db.QueryRow(query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return RecipeRecord{}, model.ErrNotFound
	}
	return rec, err
}

// CountRecipes returns the number of stored recipes.
func CountRecipes(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (RecipeRecord, error) {
	var rec RecipeRecord
	var id, mimeType, steps string
	err := s.Scan(&id, &rec.Recipe.Title, &rec.Recipe.Description, &mimeType, &steps,
		&rec.ImageKey, &rec.ThumbnailKey, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RecipeRecord{}, err
	}
	if err != nil {
		return RecipeRecord{}, fmt.Errorf("failed to scan recipe row: %w", err)
	}
	rec.Recipe.ID = model.RecipeID(id)
	rec.Recipe.MimeType = model.MimeType(mimeType)
	if err := json.Unmarshal([]byte(steps), &rec.Recipe.Steps); err != nil {
		return RecipeRecord{}, fmt.Errorf("failed to decode steps for %s: %w", id, err)
	}
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
