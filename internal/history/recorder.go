// Package history turns a composed order into a sent message and a local
// history record.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quickorder/internal/domain"
	"quickorder/internal/message"
	"quickorder/internal/store"
)

var (
	ErrVendorNotFound  = errors.New("history: vendor not found")
	ErrNothingSelected = errors.New("history: no items selected")
	ErrCannotOpen      = errors.New("history: messaging app not available")
)

// Opener hands a link to whatever can deliver it (a messaging app, a
// browser, a terminal).
type Opener interface {
	CanOpen(ctx context.Context, uri string) bool
	Open(ctx context.Context, uri string) error
}

// OrderAPI posts the server-side order summary.
type OrderAPI interface {
	CreateOrder(ctx context.Context, rec domain.OrderRecord) (*domain.OrderRecord, error)
}

// Snapshot copies the selected lines so later catalog edits cannot change
// what the record says was ordered.
func Snapshot(items []domain.CatalogItem, vendor domain.Vendor, msg string, at time.Time) domain.OrderHistoryEntry {
	lines := make([]domain.HistoryItem, 0, len(items))
	for _, it := range items {
		if !it.Selected {
			continue
		}
		lines = append(lines, domain.HistoryItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit.Label(),
		})
	}
	return domain.OrderHistoryEntry{
		Date:        at.UTC().Format(time.RFC3339Nano),
		VendorName:  vendor.Name,
		VendorPhone: vendor.Phone,
		Items:       lines,
		Message:     msg,
	}
}

type Config struct {
	Store  *store.Store
	Opener Opener
	// Orders is optional; without it no server record is posted.
	Orders OrderAPI
	Log    *logrus.Entry
	Now    func() time.Time
}

type Recorder struct {
	store  *store.Store
	opener Opener
	orders OrderAPI
	log    *logrus.Entry
	now    func() time.Time
}

func NewRecorder(cfg Config) *Recorder {
	r := &Recorder{
		store:  cfg.Store,
		opener: cfg.Opener,
		orders: cfg.Orders,
		log:    cfg.Log,
		now:    cfg.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return r
}

// Preview returns the message that Send would deliver for vendorID.
func (r *Recorder) Preview(vendorID string) (domain.Vendor, string, error) {
	vendor, ok := r.store.Vendor(vendorID)
	if !ok {
		return domain.Vendor{}, "", ErrVendorNotFound
	}
	items := r.store.SelectedItems()
	if len(items) == 0 {
		return vendor, "", ErrNothingSelected
	}
	return vendor, message.GenerateOrderMessage(items, vendor.Name, r.store.RestaurantName()), nil
}

// Send delivers the current order to vendorID.
//
// Once a link has been opened the order counts as sent: history is written
// first, then the server summary is posted (failures only logged), then
// selections are reset. If neither link can be opened nothing is recorded
// and the cart is left as it was.
func (r *Recorder) Send(ctx context.Context, vendorID string) (domain.OrderHistoryEntry, error) {
	vendor, msg, err := r.Preview(vendorID)
	if err != nil {
		return domain.OrderHistoryEntry{}, err
	}
	items := r.store.SelectedItems()

	if err := r.open(ctx, vendor, msg); err != nil {
		return domain.OrderHistoryEntry{}, err
	}

	entry, err := r.store.AddHistoryEntry(ctx, Snapshot(items, vendor, msg, r.now()))
	if err != nil {
		r.log.WithError(err).Warn("order sent but history could not be saved")
	}

	if r.orders != nil {
		rec := domain.OrderRecord{
			VendorID:    vendor.ID,
			TotalAmount: message.OrderTotal(items).StringFixed(2),
			ItemsCount:  len(items),
		}
		if p := r.store.Profile(); p != nil {
			rec.ProfileID = p.ID
		}
		if _, err := r.orders.CreateOrder(ctx, rec); err != nil {
			r.log.WithError(err).WithField("vendor_id", vendor.ID).Warn("failed to record order on server")
		}
	}

	r.store.ResetSelections()

	r.log.WithFields(logrus.Fields{
		"vendor_id": vendor.ID,
		"items":     len(items),
	}).Info("order sent")
	return entry, nil
}

func (r *Recorder) open(ctx context.Context, vendor domain.Vendor, msg string) error {
	uri := message.BuildMessagingURI(vendor.Phone, msg)
	if r.opener.CanOpen(ctx, uri) {
		if err := r.opener.Open(ctx, uri); err != nil {
			return fmt.Errorf("%w: %v", ErrCannotOpen, err)
		}
		return nil
	}

	web := message.BuildWebMessagingURI(vendor.Phone, msg)
	if !r.opener.CanOpen(ctx, web) {
		return ErrCannotOpen
	}
	if err := r.opener.Open(ctx, web); err != nil {
		return fmt.Errorf("%w: %v", ErrCannotOpen, err)
	}
	return nil
}
