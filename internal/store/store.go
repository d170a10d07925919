// Package store holds the in-progress order together with the vendor,
// profile and history reference data it is composed against.
//
// Mutations apply to memory first. Cache and network writes are side
// effects: a failed write is reported to the caller but the in-memory change
// stays, except for vendor operations, which roll back when the server
// refuses them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quickorder/internal/api"
	"quickorder/internal/cache"
	"quickorder/internal/domain"
	"quickorder/internal/fetch"
	"quickorder/internal/loader"
	"quickorder/internal/metrics"
)

var (
	ErrAlreadyStarted = errors.New("store: already started")
	ErrNotStarted     = errors.New("store: not started")
	ErrItemNotFound   = errors.New("store: item not found")
	ErrVendorNotFound = errors.New("store: vendor not found")
	ErrEntryNotFound  = errors.New("store: history entry not found")
	ErrValidation     = errors.New("store: invalid input")
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// VendorAPI is the write side of the backend for vendors. A nil VendorAPI
// keeps vendor edits local.
type VendorAPI interface {
	CreateVendor(ctx context.Context, name, phone string) (*domain.Vendor, error)
	UpdateVendor(ctx context.Context, id string, patch api.VendorPatch) (*domain.Vendor, error)
	DeleteVendor(ctx context.Context, id string) error
}

// Freshness reports where the last load of each entity was served from.
type Freshness struct {
	Profile fetch.Source
	Vendors fetch.Source
	Items   fetch.Source
}

type Deps struct {
	Loader  *loader.Loader
	Vendors VendorAPI
	Cache   cache.Cache
	Log     *logrus.Entry
}

type Store struct {
	loader  *loader.Loader
	vendors VendorAPI
	cache   cache.Cache
	log     *logrus.Entry

	mu             sync.RWMutex
	state          State
	items          []domain.CatalogItem
	itemsVendor    string
	vendorList     []domain.Vendor
	profile        *domain.Profile
	restaurantName string
	history        []domain.OrderHistoryEntry
	freshness      Freshness
}

func New(deps Deps) *Store {
	s := &Store{
		loader:  deps.Loader,
		vendors: deps.Vendors,
		cache:   deps.Cache,
		log:     deps.Log,
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.clear()
	return s
}

func (s *Store) clear() {
	s.state = StateUninitialized
	s.items = []domain.CatalogItem{}
	s.itemsVendor = ""
	s.vendorList = []domain.Vendor{}
	s.profile = nil
	s.restaurantName = domain.DefaultRestaurantName
	s.history = []domain.OrderHistoryEntry{}
	s.freshness = Freshness{Profile: fetch.SourceDefault, Vendors: fetch.SourceDefault, Items: fetch.SourceDefault}
}

// -------------------------
// Lifecycle
// -------------------------

// Start moves the store from Uninitialized to Ready. Cached data is shown
// first, then profile and vendors are fetched in parallel; history is read
// from the cache. It returns once every loader has settled.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateLoading
	s.mu.Unlock()

	s.prime(ctx)
	s.loadReference(ctx)
	history := s.readHistory(ctx)

	s.mu.Lock()
	s.history = history
	s.state = StateReady
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"vendors": len(s.Vendors()),
		"history": len(history),
	}).Info("store ready")
	return nil
}

// Refresh re-runs the reference loaders. State is left untouched; readers see
// the previous data until the loads land.
func (s *Store) Refresh(ctx context.Context) error {
	if s.State() == StateUninitialized {
		return ErrNotStarted
	}
	s.loadReference(ctx)
	return nil
}

// Reset drops all in-memory state and returns to Uninitialized. The cache is
// left as it is.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Store) prime(ctx context.Context) {
	vendors := s.loader.CachedVendors(ctx)
	profile := s.loader.CachedProfile(ctx)
	name := s.loader.RestaurantName(ctx, profile.Value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if vendors.Source == fetch.SourceCache {
		s.vendorList = vendors.Value
		s.freshness.Vendors = vendors.Source
	}
	if profile.Source == fetch.SourceCache {
		s.profile = profile.Value
		s.freshness.Profile = profile.Source
	}
	s.restaurantName = name
}

func (s *Store) loadReference(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res := s.loader.LoadVendors(gctx)
		s.mu.Lock()
		s.vendorList = res.Value
		s.freshness.Vendors = res.Source
		s.mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res := s.loader.LoadProfile(gctx)
		name := s.loader.RestaurantName(gctx, res.Value)
		s.mu.Lock()
		s.profile = res.Value
		s.restaurantName = name
		s.freshness.Profile = res.Source
		s.mu.Unlock()
		return nil
	})

	// loaders never fail
	_ = g.Wait()
}

// LoadVendorItems replaces the working set with the catalog for vendorID.
func (s *Store) LoadVendorItems(ctx context.Context, vendorID string) fetch.Source {
	res := s.loader.LoadItems(ctx, vendorID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = res.Value
	s.itemsVendor = vendorID
	s.freshness.Items = res.Source
	return res.Source
}

// SetItems replaces the working set wholesale.
func (s *Store) SetItems(items []domain.CatalogItem) {
	cp := make([]domain.CatalogItem, len(items))
	copy(cp, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cp
}

// -------------------------
// Queries
// -------------------------

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) IsLoading() bool {
	return s.State() == StateLoading
}

func (s *Store) Freshness() Freshness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freshness
}

func (s *Store) Items() []domain.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemsVendor is the vendor whose catalog is currently loaded.
func (s *Store) ItemsVendor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsVendor
}

func (s *Store) SelectedItems() []domain.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogItem, 0)
	for _, it := range s.items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) Item(id string) (domain.CatalogItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.itemIndex(id); i >= 0 {
		return s.items[i], true
	}
	return domain.CatalogItem{}, false
}

func (s *Store) Vendors() []domain.Vendor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Vendor, len(s.vendorList))
	copy(out, s.vendorList)
	return out
}

func (s *Store) Vendor(id string) (domain.Vendor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.vendorIndex(id); i >= 0 {
		return s.vendorList[i], true
	}
	return domain.Vendor{}, false
}

// Profile returns a copy of the loaded profile, or nil.
func (s *Store) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Store) RestaurantName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restaurantName
}

func (s *Store) itemIndex(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) vendorIndex(id string) int {
	for i := range s.vendorList {
		if s.vendorList[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdateRestaurantName renames the sender locally and saves the rename. A
// profile shop name loaded later takes precedence.
func (s *Store) UpdateRestaurantName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: restaurant name is required", ErrValidation)
	}

	s.mu.Lock()
	s.restaurantName = name
	s.mu.Unlock()

	if err := s.cache.Set(ctx, cache.RestaurantKey, []byte(name)); err != nil {
		s.log.WithError(err).Error("failed to persist restaurant name")
		metrics.RecordCacheWriteFailure("restaurant")
		return fmt.Errorf("persist restaurant name: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}
