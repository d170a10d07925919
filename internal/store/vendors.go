package store

import (
	"context"
	"fmt"

	"quickorder/internal/api"
	"quickorder/internal/domain"
)

// AddVendor shows the vendor immediately under a provisional id, then swaps
// in the server's record. When the server refuses, the vendor is removed
// again and the error returned.
func (s *Store) AddVendor(ctx context.Context, name, phone string) (domain.Vendor, error) {
	name, phone, err := domain.ValidateVendor(name, phone)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	provisional := domain.Vendor{ID: newID(), Name: name, Phone: phone}
	s.mu.Lock()
	s.vendorList = append(s.vendorList, provisional)
	s.mu.Unlock()

	if s.vendors == nil {
		return provisional, nil
	}

	created, err := s.vendors.CreateVendor(ctx, name, phone)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.vendorIndex(provisional.ID)
	if err != nil {
		if i >= 0 {
			s.vendorList = append(s.vendorList[:i], s.vendorList[i+1:]...)
		}
		s.log.WithError(err).WithField("vendor", name).Warn("create vendor failed, rolled back")
		return domain.Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	if i >= 0 {
		s.vendorList[i] = *created
	}
	return *created, nil
}

// UpdateVendor applies the new name and phone locally and restores the
// previous record if the server refuses.
func (s *Store) UpdateVendor(ctx context.Context, id, name, phone string) (domain.Vendor, error) {
	name, phone, err := domain.ValidateVendor(name, phone)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	i := s.vendorIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Vendor{}, ErrVendorNotFound
	}
	previous := s.vendorList[i]
	updated := previous
	updated.Name = name
	updated.Phone = phone
	s.vendorList[i] = updated
	s.mu.Unlock()

	if s.vendors == nil {
		return updated, nil
	}

	saved, err := s.vendors.UpdateVendor(ctx, id, api.VendorPatch{Name: &name, Phone: &phone})
	s.mu.Lock()
	defer s.mu.Unlock()
	i = s.vendorIndex(id)
	if err != nil {
		if i >= 0 {
			s.vendorList[i] = previous
		}
		s.log.WithError(err).WithField("vendor_id", id).Warn("update vendor failed, rolled back")
		return domain.Vendor{}, fmt.Errorf("update vendor: %w", err)
	}
	if i >= 0 {
		s.vendorList[i] = *saved
	}
	return *saved, nil
}

// RemoveVendor hides the vendor at once and puts it back in its old position
// if the server refuses the delete.
func (s *Store) RemoveVendor(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.vendorIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrVendorNotFound
	}
	removed := s.vendorList[i]
	s.vendorList = append(s.vendorList[:i], s.vendorList[i+1:]...)
	s.mu.Unlock()

	if s.vendors == nil {
		return nil
	}

	if err := s.vendors.DeleteVendor(ctx, id); err != nil {
		s.mu.Lock()
		pos := min(i, len(s.vendorList))
		s.vendorList = append(s.vendorList[:pos], append([]domain.Vendor{removed}, s.vendorList[pos:]...)...)
		s.mu.Unlock()
		s.log.WithError(err).WithField("vendor_id", id).Warn("delete vendor failed, rolled back")
		return fmt.Errorf("delete vendor: %w", err)
	}
	return nil
}
