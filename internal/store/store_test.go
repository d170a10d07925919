package store

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickorder/internal/api"
	"quickorder/internal/cache"
	"quickorder/internal/domain"
	"quickorder/internal/fetch"
	"quickorder/internal/loader"
	"quickorder/internal/logging"
	"quickorder/internal/message"
)

type backend struct {
	down    atomic.Bool
	profile *domain.Profile
	vendors []domain.Vendor
	items   []domain.CatalogItem
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.down.Load() {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	switch r.URL.Path {
	case "/api/profile":
		json.NewEncoder(w).Encode(b.profile)
	case "/api/vendors":
		json.NewEncoder(w).Encode(b.vendors)
	case "/api/items":
		json.NewEncoder(w).Encode(domain.VisibleTo(b.items, r.URL.Query().Get("vendorId")))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// fakeVendorAPI fails every call when err is set.
type fakeVendorAPI struct {
	err   error
	calls int
}

func (f *fakeVendorAPI) CreateVendor(_ context.Context, name, phone string) (*domain.Vendor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Vendor{ID: "srv-1", Name: name, Phone: phone}, nil
}

func (f *fakeVendorAPI) UpdateVendor(_ context.Context, id string, patch api.VendorPatch) (*domain.Vendor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Vendor{ID: id, Name: *patch.Name, Phone: *patch.Phone}, nil
}

func (f *fakeVendorAPI) DeleteVendor(context.Context, string) error {
	f.calls++
	return f.err
}

func newStore(t *testing.T, b *backend, vendors VendorAPI) (*Store, cache.Cache) {
	t.Helper()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	c := cache.NewMemory()
	client := api.NewClient(api.Config{BaseURL: server.URL})
	l := loader.New(client, fetch.NewFetcher(c, logging.Discard()), 2*time.Second)
	return New(Deps{Loader: l, Vendors: vendors, Cache: c, Log: logging.Discard()}), c
}

func defaultBackend() *backend {
	return &backend{
		profile: &domain.Profile{ID: "p1", ShopName: "Spice Hub"},
		vendors: []domain.Vendor{
			{ID: "v1", Name: "Ramesh", Phone: "919876543210"},
			{ID: "v2", Name: "Suresh", Phone: "919812345678"},
		},
		items: []domain.CatalogItem{
			{ID: "i1", VendorID: "v1", Name: "Onion", Unit: domain.UnitKilogram, Category: domain.CategoryVegetables, Price: "20.00", Quantity: 1},
			{ID: "i2", VendorID: domain.CommonVendorID, Name: "Rice", Unit: domain.UnitKilogram, Category: domain.CategoryStaples, Price: "50", Quantity: 1},
			{ID: "i3", VendorID: "v2", Name: "Fish", Unit: domain.UnitKilogram, Category: domain.CategoryMeatAndEggs, Price: "300", Quantity: 1},
		},
	}
}

func startedStore(t *testing.T) (*Store, cache.Cache) {
	t.Helper()
	s, c := newStore(t, defaultBackend(), nil)
	require.NoError(t, s.Start(context.Background()))
	s.LoadVendorItems(context.Background(), "v1")
	return s, c
}

// -------------------------
// Lifecycle
// -------------------------

func TestStart_LoadsReferenceData(t *testing.T) {
	s, _ := newStore(t, defaultBackend(), nil)
	assert.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, StateReady, s.State())
	assert.False(t, s.IsLoading())
	assert.Len(t, s.Vendors(), 2)
	assert.Equal(t, "Spice Hub", s.Profile().ShopName)
	assert.Equal(t, "Spice Hub", s.RestaurantName())
	assert.Empty(t, s.History())
	assert.Equal(t, fetch.SourceLive, s.Freshness().Vendors)
	assert.Equal(t, fetch.SourceLive, s.Freshness().Profile)

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestStart_OfflineUsesCache(t *testing.T) {
	b := defaultBackend()
	s, c := newStore(t, b, nil)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	_, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{VendorName: "Ramesh"})
	require.NoError(t, err)

	b.down.Store(true)
	s.Reset()
	assert.Equal(t, StateUninitialized, s.State())
	assert.Empty(t, s.Vendors())

	require.NoError(t, s.Start(ctx))
	assert.Len(t, s.Vendors(), 2)
	assert.Equal(t, fetch.SourceCache, s.Freshness().Vendors)
	assert.Equal(t, "Spice Hub", s.RestaurantName())
	assert.Len(t, s.History(), 1)

	raw, err := c.Get(ctx, cache.HistoryKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Ramesh")
}

func TestStart_NothingAnywhere(t *testing.T) {
	b := &backend{}
	b.down.Store(true)
	s, _ := newStore(t, b, nil)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, StateReady, s.State())
	assert.NotNil(t, s.Vendors())
	assert.Empty(t, s.Vendors())
	assert.Nil(t, s.Profile())
	assert.Equal(t, domain.DefaultRestaurantName, s.RestaurantName())
	assert.Equal(t, fetch.SourceDefault, s.Freshness().Vendors)
}

func TestStart_CorruptHistoryStartsEmpty(t *testing.T) {
	s, c := newStore(t, defaultBackend(), nil)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cache.HistoryKey, []byte(`{not json`)))

	require.NoError(t, s.Start(ctx))
	assert.NotNil(t, s.History())
	assert.Empty(t, s.History())
}

func TestRefresh(t *testing.T) {
	b := defaultBackend()
	s, _ := newStore(t, b, nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.Refresh(ctx), ErrNotStarted)

	require.NoError(t, s.Start(ctx))
	b.vendors = append(b.vendors, domain.Vendor{ID: "v3", Name: "Mahesh", Phone: "919800000000"})

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, StateReady, s.State())
	assert.Len(t, s.Vendors(), 3)
}

func TestLoadVendorItems(t *testing.T) {
	s, _ := newStore(t, defaultBackend(), nil)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	src := s.LoadVendorItems(ctx, "v1")

	assert.Equal(t, fetch.SourceLive, src)
	assert.Equal(t, "v1", s.ItemsVendor())
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Onion", items[0].Name)
	assert.Equal(t, "Rice", items[1].Name)
}

// -------------------------
// Working set
// -------------------------

func TestToggleSelection(t *testing.T) {
	s, _ := startedStore(t)

	require.NoError(t, s.ToggleSelection("i1"))
	it, ok := s.Item("i1")
	require.True(t, ok)
	assert.True(t, it.Selected)

	require.NoError(t, s.ToggleSelection("i1"))
	it, _ = s.Item("i1")
	assert.False(t, it.Selected)

	before := s.Items()
	assert.ErrorIs(t, s.ToggleSelection("missing"), ErrItemNotFound)
	assert.Equal(t, before, s.Items())
}

func TestSetQuantity(t *testing.T) {
	s, _ := startedStore(t)

	require.NoError(t, s.SetQuantity("i1", 3))
	it, _ := s.Item("i1")
	assert.Equal(t, 3.0, it.Quantity)

	require.NoError(t, s.SetQuantity("i1", 0.2))
	it, _ = s.Item("i1")
	assert.Equal(t, 0.5, it.Quantity)

	require.NoError(t, s.SetQuantity("i1", 0))
	it, _ = s.Item("i1")
	assert.Equal(t, 0.5, it.Quantity)

	assert.ErrorIs(t, s.SetQuantity("i1", -1), ErrValidation)
	it, _ = s.Item("i1")
	assert.Equal(t, 0.5, it.Quantity)

	assert.ErrorIs(t, s.SetQuantity("missing", 2), ErrItemNotFound)
}

func TestSetQuantity_RejectsNonFinite(t *testing.T) {
	s, _ := startedStore(t)
	require.NoError(t, s.SetQuantity("i1", 2))
	require.NoError(t, s.SetSelected("i1", true))

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, s.SetQuantity("i1", v), ErrValidation, v)
		it, _ := s.Item("i1")
		assert.Equal(t, 2.0, it.Quantity, v)
	}

	msg := message.GenerateOrderMessage(s.SelectedItems(), "Ramesh", s.RestaurantName())
	assert.Contains(t, msg, "x 2 =")
}

func TestSetSelected(t *testing.T) {
	s, _ := startedStore(t)

	require.NoError(t, s.SetSelected("i1", true))
	require.NoError(t, s.SetSelected("i1", true))
	it, _ := s.Item("i1")
	assert.True(t, it.Selected)

	require.NoError(t, s.SetSelected("i1", false))
	it, _ = s.Item("i1")
	assert.False(t, it.Selected)

	assert.ErrorIs(t, s.SetSelected("missing", true), ErrItemNotFound)
}

func TestSetUnit(t *testing.T) {
	s, _ := startedStore(t)

	require.NoError(t, s.SetUnit("i1", domain.UnitGram))
	it, _ := s.Item("i1")
	assert.Equal(t, domain.UnitGram, it.Unit)

	assert.ErrorIs(t, s.SetUnit("i1", domain.Unit("crate")), ErrValidation)
	assert.ErrorIs(t, s.SetUnit("missing", domain.UnitGram), ErrItemNotFound)
}

func TestSelectAllAndDeselectAll(t *testing.T) {
	s, _ := startedStore(t)

	s.SelectAll()
	assert.Len(t, s.SelectedItems(), 2)

	s.DeselectAll()
	assert.Empty(t, s.SelectedItems())
}

func TestAddItem(t *testing.T) {
	s, _ := startedStore(t)

	it, err := s.AddItem("  Coriander ", domain.UnitBunch, domain.CategorySpicesHerbs)
	require.NoError(t, err)

	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "Coriander", it.Name)
	assert.Equal(t, domain.CommonVendorID, it.VendorID)
	assert.Equal(t, "0", it.Price)
	assert.Equal(t, 1.0, it.Quantity)
	assert.False(t, it.Selected)

	items := s.Items()
	assert.Equal(t, it, items[len(items)-1])

	other, err := s.AddItem("Coriander", domain.UnitBunch, domain.CategorySpicesHerbs)
	require.NoError(t, err)
	assert.NotEqual(t, it.ID, other.ID)

	_, err = s.AddItem("   ", domain.UnitBunch, domain.CategorySpicesHerbs)
	assert.ErrorIs(t, err, ErrValidation)

	count := len(s.Items())
	_, err = s.AddItem("Paneer", domain.UnitKilogram, domain.Category(""))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.AddItem("Paneer", domain.UnitKilogram, domain.Category("Bakery"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, s.Items(), count)
}

func TestRemoveItem_KeepsHistory(t *testing.T) {
	s, _ := startedStore(t)
	ctx := context.Background()
	_, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{
		VendorName: "Ramesh",
		Items:      []domain.HistoryItem{{Name: "Onion", Quantity: 2, Unit: "kg"}},
	})
	require.NoError(t, err)

	require.NoError(t, s.RemoveItem("i1"))

	_, ok := s.Item("i1")
	assert.False(t, ok)
	assert.Equal(t, "Onion", s.History()[0].Items[0].Name)
	assert.ErrorIs(t, s.RemoveItem("i1"), ErrItemNotFound)
}

func TestResetSelections(t *testing.T) {
	s, _ := startedStore(t)
	require.NoError(t, s.ToggleSelection("i1"))
	require.NoError(t, s.SetQuantity("i1", 4))

	s.ResetSelections()

	for _, it := range s.Items() {
		assert.False(t, it.Selected)
		assert.Equal(t, 1.0, it.Quantity)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s, _ := startedStore(t)

	items := s.Items()
	items[0].Name = "changed"

	it, _ := s.Item(items[0].ID)
	assert.NotEqual(t, "changed", it.Name)
}

// -------------------------
// Vendors
// -------------------------

func TestAddVendor_LocalOnly(t *testing.T) {
	s, _ := startedStore(t)

	v, err := s.AddVendor(context.Background(), " Mahesh ", "+91 98000-00000")
	require.NoError(t, err)
	assert.Equal(t, "Mahesh", v.Name)
	assert.Equal(t, "919800000000", v.Phone)
	assert.Len(t, s.Vendors(), 3)

	_, err = s.AddVendor(context.Background(), "", "919800000000")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.AddVendor(context.Background(), "X", "12ab")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, s.Vendors(), 3)
}

func TestAddVendor_ServerAssignsID(t *testing.T) {
	fake := &fakeVendorAPI{}
	s, _ := newStore(t, defaultBackend(), fake)
	require.NoError(t, s.Start(context.Background()))

	v, err := s.AddVendor(context.Background(), "Mahesh", "919800000000")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", v.ID)

	got, ok := s.Vendor("srv-1")
	require.True(t, ok)
	assert.Equal(t, "Mahesh", got.Name)
	assert.Len(t, s.Vendors(), 3)
}

func TestAddVendor_RollsBackOnFailure(t *testing.T) {
	fake := &fakeVendorAPI{err: errors.New("500: boom")}
	s, _ := newStore(t, defaultBackend(), fake)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.AddVendor(context.Background(), "Mahesh", "919800000000")
	require.Error(t, err)
	assert.Len(t, s.Vendors(), 2)
	assert.Equal(t, 1, fake.calls)
}

func TestUpdateVendor(t *testing.T) {
	fake := &fakeVendorAPI{}
	s, _ := newStore(t, defaultBackend(), fake)
	require.NoError(t, s.Start(context.Background()))

	v, err := s.UpdateVendor(context.Background(), "v1", "Ramesh K", "919876543211")
	require.NoError(t, err)
	assert.Equal(t, "Ramesh K", v.Name)

	got, _ := s.Vendor("v1")
	assert.Equal(t, "919876543211", got.Phone)

	_, err = s.UpdateVendor(context.Background(), "missing", "A", "919876543211")
	assert.ErrorIs(t, err, ErrVendorNotFound)
}

func TestUpdateVendor_RollsBackOnFailure(t *testing.T) {
	fake := &fakeVendorAPI{err: errors.New("404: Vendor not found")}
	s, _ := newStore(t, defaultBackend(), fake)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.UpdateVendor(context.Background(), "v1", "Ramesh K", "919876543211")
	require.Error(t, err)

	got, _ := s.Vendor("v1")
	assert.Equal(t, "Ramesh", got.Name)
	assert.Equal(t, "919876543210", got.Phone)
}

func TestRemoveVendor(t *testing.T) {
	fake := &fakeVendorAPI{}
	s, _ := newStore(t, defaultBackend(), fake)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.RemoveVendor(context.Background(), "v1"))
	_, ok := s.Vendor("v1")
	assert.False(t, ok)
	assert.ErrorIs(t, s.RemoveVendor(context.Background(), "v1"), ErrVendorNotFound)
}

func TestRemoveVendor_RollsBackInPlace(t *testing.T) {
	fake := &fakeVendorAPI{err: errors.New("502: Bad Gateway")}
	s, _ := newStore(t, defaultBackend(), fake)
	require.NoError(t, s.Start(context.Background()))
	before := s.Vendors()

	require.Error(t, s.RemoveVendor(context.Background(), "v1"))
	assert.Equal(t, before, s.Vendors())
}

// -------------------------
// Restaurant name and history
// -------------------------

func TestUpdateRestaurantName(t *testing.T) {
	b := defaultBackend()
	b.profile = nil
	s, c := newStore(t, b, nil)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, domain.DefaultRestaurantName, s.RestaurantName())

	require.NoError(t, s.UpdateRestaurantName(ctx, " Corner Dhaba "))
	assert.Equal(t, "Corner Dhaba", s.RestaurantName())

	raw, err := c.Get(ctx, cache.RestaurantKey)
	require.NoError(t, err)
	assert.Equal(t, "Corner Dhaba", string(raw))

	assert.ErrorIs(t, s.UpdateRestaurantName(ctx, " "), ErrValidation)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, "Corner Dhaba", s.RestaurantName())
}

func TestHistory_MostRecentFirst(t *testing.T) {
	s, c := startedStore(t)
	ctx := context.Background()

	first, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{VendorName: "Ramesh"})
	require.NoError(t, err)
	second, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{VendorName: "Suresh"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, "Suresh", h[0].VendorName)
	assert.Equal(t, "Ramesh", h[1].VendorName)

	raw, err := c.Get(ctx, cache.HistoryKey)
	require.NoError(t, err)
	var persisted []domain.OrderHistoryEntry
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, h, persisted)
}

func TestHistory_ReturnsCopies(t *testing.T) {
	s, _ := startedStore(t)
	ctx := context.Background()

	items := []domain.HistoryItem{{Name: "Onion", Quantity: 2, Unit: "kg"}}
	added, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{VendorName: "Ramesh", Items: items})
	require.NoError(t, err)

	items[0].Name = "changed by caller"
	added.Items[0].Name = "changed via result"
	h := s.History()
	h[0].Items[0].Quantity = 99

	got := s.History()
	require.Len(t, got, 1)
	assert.Equal(t, domain.HistoryItem{Name: "Onion", Quantity: 2, Unit: "kg"}, got[0].Items[0])
}

func TestDeleteHistoryEntry(t *testing.T) {
	s, c := startedStore(t)
	ctx := context.Background()
	e, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{VendorName: "Ramesh"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteHistoryEntry(ctx, e.ID))
	assert.Empty(t, s.History())
	assert.ErrorIs(t, s.DeleteHistoryEntry(ctx, e.ID), ErrEntryNotFound)

	raw, err := c.Get(ctx, cache.HistoryKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestClearHistory(t *testing.T) {
	s, c := startedStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.AddHistoryEntry(ctx, domain.OrderHistoryEntry{VendorName: "Ramesh"})
		require.NoError(t, err)
	}

	require.NoError(t, s.ClearHistory(ctx))
	assert.Empty(t, s.History())

	raw, err := c.Get(ctx, cache.HistoryKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

type failingCache struct{ cache.Cache }

func (failingCache) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestAddHistoryEntry_WriteFailureKeepsEntry(t *testing.T) {
	s, c := startedStore(t)
	s.cache = failingCache{c}

	_, err := s.AddHistoryEntry(context.Background(), domain.OrderHistoryEntry{VendorName: "Ramesh"})
	require.Error(t, err)
	assert.Len(t, s.History(), 1)
}
