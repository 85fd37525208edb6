package repository

import (
	"fmt"
	"sync/atomic"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/models"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionStore holds the auction items and their current bid state.
// ApplyBid performs no validation; callers must serialize writes per item.
type AuctionStore interface {
	Get(itemID int) (models.AuctionItem, error)
	ListAll() []models.AuctionItem
	ApplyBid(itemID int, amount decimal.Decimal, bidder string) (models.AuctionItem, error)
}

// MemoryRepo is an in-memory AuctionStore seeded once at startup.
//
// The item set is fixed after construction, so the index map is read-only.
// Each item's state lives behind an atomic pointer: a bid swaps in a whole new
// snapshot, so readers see either the old (currentBid, highestBidder) pair or
// the new one, never a mix.
type MemoryRepo struct {
	order []int                                       // catalog order for ListAll
	items map[int]*atomic.Pointer[models.AuctionItem] // key: itemID -> current snapshot
}

// NewMemoryRepo creates a repository seeded with items in the given order.
func NewMemoryRepo(items ...models.AuctionItem) (*MemoryRepo, error) {
	r := &MemoryRepo{
		order: make([]int, 0, len(items)),
		items: make(map[int]*atomic.Pointer[models.AuctionItem], len(items)),
	}

	for _, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("seed item %q: non-positive id %d", item.Title, item.ID)
		}
		if _, exists := r.items[item.ID]; exists {
			return nil, fmt.Errorf("seed item %d: %w", item.ID, biddingerrors.ErrDuplicateID)
		}

		snapshot := item
		slot := &atomic.Pointer[models.AuctionItem]{}
		slot.Store(&snapshot)

		r.items[item.ID] = slot
		r.order = append(r.order, item.ID)
	}

	return r, nil
}

// Get returns the current snapshot of an item
func (r *MemoryRepo) Get(itemID int) (models.AuctionItem, error) {
	slot, ok := r.items[itemID]
	if !ok {
		return models.AuctionItem{}, fmt.Errorf("get item %d: %w", itemID, biddingerrors.ErrItemNotFound)
	}
	return *slot.Load(), nil
}

// ListAll returns snapshots of every item in catalog order
func (r *MemoryRepo) ListAll() []models.AuctionItem {
	items := make([]models.AuctionItem, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, *r.items[id].Load())
	}
	return items
}

// ApplyBid overwrites the item's current bid and highest bidder and returns the new snapshot
func (r *MemoryRepo) ApplyBid(itemID int, amount decimal.Decimal, bidder string) (models.AuctionItem, error) {
	slot, ok := r.items[itemID]
	if !ok {
		return models.AuctionItem{}, fmt.Errorf("apply bid to item %d: %w", itemID, biddingerrors.ErrItemNotFound)
	}

	next := *slot.Load()
	next.CurrentBid = amount
	next.HighestBidder = bidder
	slot.Store(&next)

	return next, nil
}
