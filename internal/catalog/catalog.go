package catalog

import (
	"fmt"
	"reflect"
	"time"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type entry struct {
	id         int
	title      string
	openingBid string
	image      string
	// endOffset staggers closing times so lots do not all end together
	endOffset time.Duration
}

var defaultEntries = []entry{
	{id: 1, title: "Vintage Leica Camera", openingBid: "100", image: "/images/leica-camera.jpg", endOffset: 0},
	{id: 2, title: "Mid-Century Oil Painting", openingBid: "250", image: "/images/oil-painting.jpg", endOffset: 15 * time.Minute},
	{id: 3, title: "Mechanical Chronograph Watch", openingBid: "500", image: "/images/chronograph.jpg", endOffset: 30 * time.Minute},
	{id: 4, title: "First Edition Novel", openingBid: "75", image: "/images/first-edition.jpg", endOffset: 45 * time.Minute},
}

// Default returns the fixed seed catalog. Auctions end duration after now,
// plus a per-item stagger.
func Default(now time.Time, duration time.Duration) []models.AuctionItem {
	items := make([]models.AuctionItem, 0, len(defaultEntries))
	for _, e := range defaultEntries {
		items = append(items, models.AuctionItem{
			ID:            e.id,
			Title:         e.title,
			CurrentBid:    decimal.RequireFromString(e.openingBid),
			AuctionEndsAt: now.Add(duration + e.endOffset),
			Image:         e.image,
		})
	}
	return items
}

// Validate checks every seed item's field constraints and that ids are unique.
func Validate(items []models.AuctionItem) error {
	validate := newValidator()

	seen := make(map[int]struct{}, len(items))
	for _, item := range items {
		if err := validate.Struct(item); err != nil {
			return fmt.Errorf("catalog item %d: %w", item.ID, err)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("catalog item %d: %w", item.ID, biddingerrors.ErrDuplicateID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// newValidator teaches the validator to compare decimals as numbers.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return validate
}
