// Package store holds the session's recipe catalog: a map from id to recipe
// plus the display order, kept in lockstep, and the pagination cursor.
package store

import (
	"fmt"

	"reci/internal/model"
)

// Store is the in-memory recipe catalog. It is owned by the UI event loop and
// is not safe for concurrent use.
type Store struct {
	byID   map[model.RecipeID]model.Recipe
	order  []model.RecipeID
	cursor string
}

// New returns an empty store with no known further pages.
func New() *Store {
	return &Store{
		byID: make(map[model.RecipeID]model.Recipe),
	}
}

// MergeFetchedPage appends the recipes of a fetched page that are not already
// present, preserving batch order, and replaces the cursor with nextCursor.
// An empty nextCursor means the end of the data. It returns the number of
// recipes appended.
func (s *Store) MergeFetchedPage(batch []model.Recipe, nextCursor string) int {
	added := 0
	for _, r := range batch {
		if r.IsDraft() {
			continue
		}
		if _, ok := s.byID[r.ID]; ok {
			continue
		}
		s.byID[r.ID] = r.Clone()
		s.order = append(s.order, r.ID)
		added++
	}
	s.cursor = nextCursor
	return added
}

// MergeCreatedRecipe places a just-created recipe at the head of the order.
// Drafts and ids already present are rejected without mutation.
func (s *Store) MergeCreatedRecipe(r model.Recipe) bool {
	if r.IsDraft() {
		return false
	}
	if _, ok := s.byID[r.ID]; ok {
		return false
	}
	s.byID[r.ID] = r.Clone()
	s.order = append([]model.RecipeID{r.ID}, s.order...)
	return true
}

// Get returns a copy of the recipe with the given id.
func (s *Store) Get(id model.RecipeID) (model.Recipe, bool) {
	r, ok := s.byID[id]
	if !ok {
		return model.Recipe{}, false
	}
	return r.Clone(), true
}

// Has reports whether id is in the store.
func (s *Store) Has(id model.RecipeID) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of recipes.
func (s *Store) Len() int {
	return len(s.order)
}

// Order returns a copy of the display order.
func (s *Store) Order() []model.RecipeID {
	return append([]model.RecipeID(nil), s.order...)
}

// Recipes returns the recipes in display order.
func (s *Store) Recipes() []model.Recipe {
	out := make([]model.Recipe, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Cursor returns the continuation token of the last fetch.
func (s *Store) Cursor() (string, bool) {
	return s.cursor, s.cursor != ""
}

// HasMore reports whether the last fetch indicated further pages.
func (s *Store) HasMore() bool {
	return s.cursor != ""
}

// CheckInvariant reports a lockstep violation between the map and the order.
func (s *Store) CheckInvariant() error {
	if len(s.order) != len(s.byID) {
		return fmt.Errorf("store out of lockstep: %d ordered ids, %d recipes", len(s.order), len(s.byID))
	}
	seen := make(map[model.RecipeID]struct{}, len(s.order))
	for _, id := range s.order {
		if _, ok := s.byID[id]; !ok {
			return fmt.Errorf("store out of lockstep: ordered id %s has no recipe", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("store out of lockstep: id %s ordered twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
