package loader

import (
	"context"
	"encoding/json"
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
	"quickorder/internal/logging"
)

// backend serves fixed payloads until down is set.
type backend struct {
	down    atomic.Bool
	profile *domain.Profile
	vendors []domain.Vendor
	items   []domain.CatalogItem
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case "/api/profile":
		json.NewEncoder(w).Encode(b.profile)
	case "/api/vendors":
		json.NewEncoder(w).Encode(b.vendors)
	case "/api/items":
		json.NewEncoder(w).Encode(b.items)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T, b *backend) (*Loader, cache.Cache) {
	t.Helper()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	c := cache.NewMemory()
	client := api.NewClient(api.Config{BaseURL: server.URL})
	return New(client, fetch.NewFetcher(c, logging.Discard()), 2*time.Second), c
}

func TestLoadVendors_CacheFallbackRoundTrip(t *testing.T) {
	b := &backend{vendors: []domain.Vendor{{ID: "v1", Name: "Ramesh", Phone: "919876543210"}}}
	l, _ := setup(t, b)
	ctx := context.Background()

	live := l.LoadVendors(ctx)
	require.Equal(t, fetch.SourceLive, live.Source)

	b.down.Store(true)
	fallback := l.LoadVendors(ctx)

	assert.Equal(t, fetch.SourceCache, fallback.Source)
	assert.Equal(t, live.Value, fallback.Value)
	assert.Error(t, fallback.Err)
}

func TestLoadVendors_NothingAnywhere(t *testing.T) {
	b := &backend{}
	b.down.Store(true)
	l, _ := setup(t, b)

	res := l.LoadVendors(context.Background())
	assert.Equal(t, fetch.SourceDefault, res.Source)
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestLoadItems_EmptyCacheAndNetworkDown(t *testing.T) {
	b := &backend{}
	b.down.Store(true)
	l, c := setup(t, b)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cache.ItemsKey("v1"), []byte(`[]`)))

	res := l.LoadItems(ctx, "v1")

	assert.Equal(t, fetch.SourceCache, res.Source)
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestLoadItems_UnionOfVendorAndCommon(t *testing.T) {
	b := &backend{items: []domain.CatalogItem{
		{ID: "1", VendorID: "v1", Name: "Onion", Unit: domain.UnitKilogram, Price: "20.00", Quantity: 1},
		{ID: "2", VendorID: domain.CommonVendorID, Name: "Salt", Unit: domain.UnitPacket, Price: "", Quantity: 1},
		{ID: "3", VendorID: "v2", Name: "Fish", Unit: domain.UnitKilogram, Price: "300", Quantity: 1},
	}}
	l, c := setup(t, b)
	ctx := context.Background()

	res := l.LoadItems(ctx, "v1")

	require.Equal(t, fetch.SourceLive, res.Source)
	require.Len(t, res.Value, 2)
	assert.Equal(t, "Onion", res.Value[0].Name)
	assert.Equal(t, "Salt", res.Value[1].Name)
	assert.Equal(t, "0", res.Value[1].Price)

	raw, err := c.Get(ctx, cache.ItemsKey("v1"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":2`)

	_, err = c.Get(ctx, cache.ItemsKey("v2"))
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestLoadItems_MigratesLegacyCache(t *testing.T) {
	b := &backend{}
	b.down.Store(true)
	l, c := setup(t, b)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cache.ItemsKey("v1"),
		[]byte(`[{"id":"1","name":"Milk","unit":"L","category":"Dairy","quantity":1}]`)))

	res := l.LoadItems(ctx, "v1")

	require.Equal(t, fetch.SourceCache, res.Source)
	require.Len(t, res.Value, 1)
	assert.Equal(t, domain.UnitLitre, res.Value[0].Unit)
	assert.Equal(t, domain.CommonVendorID, res.Value[0].VendorID)
}

func TestLoadProfile_NullFallsBackToCache(t *testing.T) {
	b := &backend{profile: &domain.Profile{ID: "p1", ShopName: "Spice Hub"}}
	l, _ := setup(t, b)
	ctx := context.Background()

	first := l.LoadProfile(ctx)
	require.Equal(t, fetch.SourceLive, first.Source)

	b.profile = nil
	second := l.LoadProfile(ctx)

	assert.Equal(t, fetch.SourceCache, second.Source)
	require.NotNil(t, second.Value)
	assert.Equal(t, "Spice Hub", second.Value.ShopName)
}

func TestLoadProfile_NoneAnywhere(t *testing.T) {
	l, _ := setup(t, &backend{})

	res := l.LoadProfile(context.Background())
	assert.Equal(t, fetch.SourceDefault, res.Source)
	assert.Nil(t, res.Value)
}

func TestCachedReads(t *testing.T) {
	b := &backend{vendors: []domain.Vendor{{ID: "v1"}}, profile: &domain.Profile{ShopName: "Spice Hub"}}
	l, _ := setup(t, b)
	ctx := context.Background()

	assert.Equal(t, fetch.SourceDefault, l.CachedVendors(ctx).Source)

	l.LoadVendors(ctx)
	l.LoadProfile(ctx)

	assert.Equal(t, fetch.SourceCache, l.CachedVendors(ctx).Source)
	assert.Equal(t, "Spice Hub", l.CachedProfile(ctx).Value.ShopName)
}

func TestRestaurantName(t *testing.T) {
	l, c := setup(t, &backend{})
	ctx := context.Background()

	assert.Equal(t, domain.DefaultRestaurantName, l.RestaurantName(ctx, nil))

	require.NoError(t, c.Set(ctx, cache.RestaurantKey, []byte("Corner Dhaba")))
	assert.Equal(t, "Corner Dhaba", l.RestaurantName(ctx, nil))

	assert.Equal(t, "Spice Hub", l.RestaurantName(ctx, &domain.Profile{ShopName: "Spice Hub"}))
}
