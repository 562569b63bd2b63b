// Package category owns the set of built-in and custom categories and keeps
// their identifiers stable across restarts.
package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dori/simplr/internal/model"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("category not found")
	ErrBuiltinImmutable = errors.New("built-in categories cannot be changed")
	ErrInvalidName      = errors.New("category name is required")
	ErrDuplicateName    = errors.New("a category with that name already exists")
)

// Repository persists the category set
type Repository interface {
	LoadCategories(ctx context.Context) ([]model.Category, error)
	ReplaceCategories(ctx context.Context, cats []model.Category) error
}

// LoadResult describes what LoadAll found in persisted state
type LoadResult struct {
	Categories []model.Category
	// Legacy holds built-in records persisted under a non-canonical id.
	// Their ids must be rewritten in tasks by MigrateLegacyBuiltins.
	Legacy []model.Category
	// Dropped holds custom records that collided with a built-in id.
	Dropped []model.Category
}

// Store owns the in-memory category set
type Store struct {
	mu         sync.RWMutex
	repo       Repository
	log        *slog.Logger
	categories []model.Category
}

// NewStore creates a store seeded with the built-in categories
func NewStore(repo Repository, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{
		repo:       repo,
		log:        log,
		categories: model.Builtins(),
	}
}

// LoadAll reads persisted categories and reconciles them with the built-in
// table. Built-ins always come from the table, never from storage. On a
// read failure the store falls back to the built-ins and returns the error.
func (s *Store) LoadAll(ctx context.Context) (LoadResult, error) {
	records, err := s.repo.LoadCategories(ctx)
	if err != nil {
		s.mu.Lock()
		s.categories = model.Builtins()
		s.mu.Unlock()
		return LoadResult{Categories: model.Builtins()}, fmt.Errorf("load categories: %w", err)
	}

	res := Reconcile(records)
	for _, c := range res.Legacy {
		s.log.Info("legacy built-in category found", "name", c.Name, "legacy_id", c.ID)
	}
	for _, c := range res.Dropped {
		s.log.Warn("dropping custom category that collides with a built-in id", "name", c.Name, "id", c.ID)
	}

	s.mu.Lock()
	s.categories = cloneAll(res.Categories)
	s.mu.Unlock()

	return res, nil
}

// Reconcile splits persisted records into the live category set, legacy
// built-in records and corrupt records. With no records it yields the
// built-in set.
func Reconcile(records []model.Category) LoadResult {
	res := LoadResult{Categories: model.Builtins()}
	seen := make(map[string]bool)
	for _, c := range res.Categories {
		seen[c.ID] = true
	}

	for _, rec := range records {
		if builtin, ok := model.BuiltinByID(rec.ID); ok {
			// Canonical built-in row: already present from the table.
			if rec.IsCustom || !strings.EqualFold(rec.Name, builtin.Name) {
				res.Dropped = append(res.Dropped, rec)
			}
			continue
		}
		if _, ok := model.BuiltinByName(rec.Name); ok {
			res.Legacy = append(res.Legacy, rec)
			continue
		}
		if rec.ID == "" || seen[rec.ID] {
			res.Dropped = append(res.Dropped, rec)
			continue
		}
		seen[rec.ID] = true
		rec.IsCustom = true
		res.Categories = append(res.Categories, rec)
	}

	return res
}

// Save persists the given set exactly as given and makes it the live set
func (s *Store) Save(ctx context.Context, cats []model.Category) error {
	if err := s.repo.ReplaceCategories(ctx, cats); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	s.mu.Lock()
	s.categories = cloneAll(cats)
	s.mu.Unlock()
	return nil
}

// Create adds a custom category with a freshly allocated id
func (s *Store) Create(ctx context.Context, name, colorKey string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return model.Category{}, ErrDuplicateName
		}
	}

	cat := model.Category{
		ID:       uuid.New().String(),
		Name:     name,
		ColorKey: colorKey,
		IsCustom: true,
	}

	next := append(cloneAll(s.categories), cat)
	if err := s.repo.ReplaceCategories(ctx, next); err != nil {
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.categories = next

	return cat, nil
}

// Delete removes a custom category. Task references are left for the caller.
func (s *Store) Delete(ctx context.Context, id string) error {
	if model.IsBuiltinID(id) {
		return ErrBuiltinImmutable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Category, 0, len(s.categories))
	found := false
	for _, c := range s.categories {
		if c.ID == id {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		return ErrNotFound
	}

	if err := s.repo.ReplaceCategories(ctx, next); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.categories = next
	return nil
}

// All returns a copy of the live category set
func (s *Store) All() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.categories)
}

// Get returns the category with the given id
func (s *Store) Get(id string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// FindByName returns the category with the given case-insensitive name
func (s *Store) FindByName(name string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return model.Category{}, false
}

// Resolve maps a task's category reference to a category. Missing and
// dangling references resolve to model.Uncategorized.
func (s *Store) Resolve(id *string) model.Category {
	if id == nil {
		return model.Uncategorized
	}
	if c, ok := s.Get(*id); ok {
		return c
	}
	return model.Uncategorized
}

func cloneAll(cats []model.Category) []model.Category {
	out := make([]model.Category, len(cats))
	copy(out, cats)
	return out
}
