package store

import (
	"fmt"
	"math"
	"strings"

	"quickorder/internal/domain"
)

// ToggleSelection flips the item's selected flag.
func (s *Store) ToggleSelection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.items[i].Selected = !s.items[i].Selected
	return nil
}

// SetSelected sets the item's selected flag to v.
func (s *Store) SetSelected(id string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.items[i].Selected = v
	return nil
}

// SetQuantity rejects negative and non-finite values and raises anything
// below the floor to MinQuantity.
func (s *Store) SetQuantity(id string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: quantity %v is not a finite number", ErrValidation, value)
	}
	if value < 0 {
		return fmt.Errorf("%w: quantity %v is negative", ErrValidation, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.items[i].Quantity = max(domain.MinQuantity, value)
	return nil
}

func (s *Store) SetUnit(id string, unit domain.Unit) error {
	if !unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.items[i].Unit = unit
	return nil
}

func (s *Store) SelectAll() {
	s.setAllSelected(true)
}

func (s *Store) DeselectAll() {
	s.setAllSelected(false)
}

func (s *Store) setAllSelected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Selected = v
	}
}

// AddItem appends a new unselected item to the working set. It is shared
// across vendors and has no price yet.
func (s *Store) AddItem(name string, unit domain.Unit, category domain.Category) (domain.CatalogItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CatalogItem{}, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if !unit.Valid() {
		return domain.CatalogItem{}, fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
	}
	if !category.Valid() {
		return domain.CatalogItem{}, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}

	it := domain.CatalogItem{
		ID:       newID(),
		VendorID: domain.CommonVendorID,
		Name:     name,
		Unit:     unit,
		Category: category,
		Price:    "0",
		Selected: false,
		Quantity: domain.DefaultQuantity,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, it)
	return it, nil
}

// RemoveItem drops the item from the working set. History is not touched.
func (s *Store) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// ResetSelections clears the cart after a send: nothing selected, every
// quantity back to the default.
func (s *Store) ResetSelections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Selected = false
		s.items[i].Quantity = domain.DefaultQuantity
	}
}
