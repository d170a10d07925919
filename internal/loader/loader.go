// Package loader reads profile, vendors and catalog items through the
// resilient fetch layer. None of its methods return errors: reachability
// problems degrade to cached data and then to empty defaults.
package loader

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"quickorder/internal/cache"
	"quickorder/internal/domain"
	"quickorder/internal/fetch"
)

// API is the read side of the backend client.
type API interface {
	GetProfile(ctx context.Context) (*domain.Profile, error)
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	ListItems(ctx context.Context, vendorID string) ([]domain.CatalogItem, error)
}

type Loader struct {
	api     API
	fetcher *fetch.Fetcher
	timeout time.Duration
}

func New(api API, fetcher *fetch.Fetcher, timeout time.Duration) *Loader {
	return &Loader{api: api, fetcher: fetcher, timeout: timeout}
}

func (l *Loader) profileRequest() fetch.Request[*domain.Profile] {
	return fetch.Request[*domain.Profile]{
		Entity:  "profile",
		Key:     cache.ProfileKey,
		Timeout: l.timeout,
		Call:    l.api.GetProfile,
		Accept:  func(p *domain.Profile) bool { return p != nil },
	}
}

func (l *Loader) vendorsRequest() fetch.Request[[]domain.Vendor] {
	return fetch.Request[[]domain.Vendor]{
		Entity:  "vendors",
		Key:     cache.VendorsKey,
		Timeout: l.timeout,
		Default: []domain.Vendor{},
		Call: func(ctx context.Context) ([]domain.Vendor, error) {
			v, err := l.api.ListVendors(ctx)
			if err == nil && v == nil {
				v = []domain.Vendor{}
			}
			return v, err
		},
		Decode: decodeVendors,
	}
}

func (l *Loader) itemsRequest(vendorID string) fetch.Request[[]domain.CatalogItem] {
	return fetch.Request[[]domain.CatalogItem]{
		Entity:  "items",
		Key:     cache.ItemsKey(vendorID),
		Timeout: l.timeout,
		Default: []domain.CatalogItem{},
		Call: func(ctx context.Context) ([]domain.CatalogItem, error) {
			items, err := l.api.ListItems(ctx, vendorID)
			if err != nil {
				return nil, err
			}
			out := make([]domain.CatalogItem, 0, len(items))
			for _, it := range domain.VisibleTo(items, vendorID) {
				out = append(out, domain.MigrateItem(it))
			}
			return out, nil
		},
		Encode: domain.EncodeItems,
		Decode: func(data []byte) ([]domain.CatalogItem, error) {
			items, err := domain.DecodeItems(data)
			if err != nil {
				return nil, err
			}
			return domain.VisibleTo(items, vendorID), nil
		},
	}
}

// LoadProfile returns nil (SourceDefault) when neither the server nor the
// cache has a profile.
func (l *Loader) LoadProfile(ctx context.Context) fetch.Result[*domain.Profile] {
	return fetch.Do(ctx, l.fetcher, l.profileRequest())
}

func (l *Loader) LoadVendors(ctx context.Context) fetch.Result[[]domain.Vendor] {
	return fetch.Do(ctx, l.fetcher, l.vendorsRequest())
}

// LoadItems returns the vendor's items together with the shared catalog.
// An empty vendorID yields the shared catalog only.
func (l *Loader) LoadItems(ctx context.Context, vendorID string) fetch.Result[[]domain.CatalogItem] {
	return fetch.Do(ctx, l.fetcher, l.itemsRequest(vendorID))
}

func (l *Loader) CachedProfile(ctx context.Context) fetch.Result[*domain.Profile] {
	return fetch.ReadCached(ctx, l.fetcher, l.profileRequest())
}

func (l *Loader) CachedVendors(ctx context.Context) fetch.Result[[]domain.Vendor] {
	return fetch.ReadCached(ctx, l.fetcher, l.vendorsRequest())
}

// RestaurantName prefers the profile's shop name, then a locally saved
// rename, then the default.
func (l *Loader) RestaurantName(ctx context.Context, profile *domain.Profile) string {
	if profile != nil && strings.TrimSpace(profile.ShopName) != "" {
		return profile.ShopName
	}
	data, err := l.fetcher.Cache().Get(ctx, cache.RestaurantKey)
	if err == nil && strings.TrimSpace(string(data)) != "" {
		return string(data)
	}
	return domain.DefaultRestaurantName
}

func decodeVendors(data []byte) ([]domain.Vendor, error) {
	var out []domain.Vendor
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Vendor{}
	}
	return out, nil
}
