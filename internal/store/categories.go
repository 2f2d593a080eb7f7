package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"onepocket/internal/api"
	"onepocket/internal/core"
)

// CategoryStore is the client-side category list. A user with zero categories
// gets the default set seeded on first load.
type CategoryStore struct {
	api api.CategoryAPI

	mu         sync.RWMutex
	categories []core.Category
	loading    bool
}

func NewCategoryStore(categoryAPI api.CategoryAPI) *CategoryStore {
	return &CategoryStore{api: categoryAPI, loading: true}
}

// Load fetches the category list, seeding defaults first when the user has
// none. Individual seed failures are logged and skipped; seeding continues
// with the remaining names.
func (s *CategoryStore) Load(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	if len(categories) == 0 {
		slog.InfoContext(ctx, "No categories found, seeding defaults")
		for _, name := range core.DefaultCategories {
			if _, err := s.api.CreateCategory(ctx, name); err != nil {
				slog.WarnContext(ctx, "Failed to seed default category",
					"name", name, "error", err)
			}
		}
		categories, err = s.api.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("reload categories after seeding: %w", err)
		}
	}

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return nil
}

// Create adds a category. Name uniqueness is case-insensitive and checked
// client-side before the API call.
func (s *CategoryStore) Create(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}
	if s.exists(name) {
		return core.Category{}, fmt.Errorf("category %q already exists", name)
	}

	created, err := s.api.CreateCategory(ctx, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.mu.Lock()
	s.categories = append(s.categories, created)
	s.mu.Unlock()
	return created, nil
}

// Delete removes a category. The server rejects categories still referenced
// by expenses; that rejection carries no structured code, so the caller can
// only surface a generic "may be in use" message.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.mu.Lock()
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	s.mu.Unlock()
	return nil
}

// Reset drops the list on user switch.
func (s *CategoryStore) Reset() {
	s.mu.Lock()
	s.categories = nil
	s.loading = true
	s.mu.Unlock()
}

// Categories returns a copy of the current list.
func (s *CategoryStore) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Names returns the category names in list order.
func (s *CategoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.categories))
	for i, c := range s.categories {
		names[i] = c.Name
	}
	return names
}

// Loading reports whether the list is still being fetched.
func (s *CategoryStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *CategoryStore) setLoading(b bool) {
	s.mu.Lock()
	s.loading = b
	s.mu.Unlock()
}

func (s *CategoryStore) exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
