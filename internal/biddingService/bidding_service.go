package bidding

import (
	"errors"
	"strings"
	"sync"
	"time"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/metrics"
	"live-auction/internal/models"
	"live-auction/internal/repository"

	"github.com/benbjohnson/clock"
)

//go:generate mockgen -source=bidding_service.go -destination=mock_notifier.go -package=bidding

// Notifier receives the outcome of every bid attempt.
//
// For bids that reach an item's critical section it is invoked before the
// section is released, so accepted updates are handed over in acceptance
// order. Implementations must not block.
type Notifier interface {
	NotifyOutcome(origin string, item models.AuctionItem, err error)
}

// Options tunes the admission controller. Zero values are usable.
type Options struct {
	// EnforceClose rejects bids evaluated at or after the item's AuctionEndsAt.
	EnforceClose bool
	Clock        clock.Clock
	Metrics      metrics.Recorder
}

// AdmissionController serializes bid attempts per item and admits only
// strictly increasing amounts. It is the single writer of the store's bid
// fields; HTTP and websocket callers share the same instance.
type AdmissionController struct {
	store    repository.AuctionStore
	notifier Notifier

	// One lock per seeded item. The item set never changes, so the map is
	// only read after construction.
	locks map[int]*sync.Mutex

	clock        clock.Clock
	enforceClose bool
	metrics      metrics.Recorder
}

// NewAdmissionController creates a controller guarding every item currently in store.
func NewAdmissionController(store repository.AuctionStore, notifier Notifier, opts Options) *AdmissionController {
	items := store.ListAll()
	locks := make(map[int]*sync.Mutex, len(items))
	for _, item := range items {
		locks[item.ID] = &sync.Mutex{}
	}

	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}

	return &AdmissionController{
		store:        store,
		notifier:     notifier,
		locks:        locks,
		clock:        opts.Clock,
		enforceClose: opts.EnforceClose,
		metrics:      opts.Metrics,
	}
}

// SubmitBid validates and, if admissible, applies a bid. origin identifies the
// subscriber that sent it and is empty for request/response callers.
//
// Every call yields exactly one outcome: the updated snapshot and a nil error,
// or a zero item and a *biddingerrors.Rejection.
func (c *AdmissionController) SubmitBid(origin string, req models.BidRequest) (models.AuctionItem, error) {
	req.BidderName = strings.TrimSpace(req.BidderName)

	if err := validateRequest(req); err != nil {
		return c.finish(origin, models.AuctionItem{}, err)
	}

	lock, ok := c.locks[req.ItemID]
	if !ok {
		return c.finish(origin, models.AuctionItem{}, itemNotFound(req.ItemID))
	}

	start := time.Now()
	lock.Lock()
	defer lock.Unlock()
	c.metrics.RecordAdmissionWait(time.Since(start))

	item, err := c.admit(req)
	return c.finish(origin, item, err)
}

// admit is the critical section: read, compare and write under the item lock.
func (c *AdmissionController) admit(req models.BidRequest) (models.AuctionItem, error) {
	current, err := c.store.Get(req.ItemID)
	if err != nil {
		return models.AuctionItem{}, itemNotFound(req.ItemID)
	}

	if c.enforceClose && !current.AuctionEndsAt.IsZero() && !c.clock.Now().Before(current.AuctionEndsAt) {
		return models.AuctionItem{}, biddingerrors.Reject(biddingerrors.ErrAuctionClosed, req.ItemID,
			"auction for %s has ended", current.Title)
	}

	if req.Amount.LessThanOrEqual(current.CurrentBid) {
		return models.AuctionItem{}, biddingerrors.Reject(biddingerrors.ErrBidTooLow, req.ItemID,
			"bid must exceed $%s", current.CurrentBid.String())
	}

	updated, err := c.store.ApplyBid(req.ItemID, req.Amount, req.BidderName)
	if err != nil {
		return models.AuctionItem{}, itemNotFound(req.ItemID)
	}
	return updated, nil
}

func (c *AdmissionController) finish(origin string, item models.AuctionItem, err error) (models.AuctionItem, error) {
	c.metrics.RecordBid(outcomeLabel(err))
	if c.notifier != nil {
		c.notifier.NotifyOutcome(origin, item, err)
	}
	return item, err
}

// ListAuctions returns snapshots of every item.
func (c *AdmissionController) ListAuctions() []models.AuctionItem {
	return c.store.ListAll()
}

// GetAuction returns the snapshot of one item.
func (c *AdmissionController) GetAuction(itemID int) (models.AuctionItem, error) {
	item, err := c.store.Get(itemID)
	if err != nil {
		return models.AuctionItem{}, itemNotFound(itemID)
	}
	return item, nil
}

// validateRequest checks the fields of a bid before any lock is taken
func validateRequest(req models.BidRequest) error {
	if req.ItemID <= 0 || req.BidderName == "" {
		return biddingerrors.Reject(biddingerrors.ErrInvalidRequest, req.ItemID,
			"itemId, amount and bidderName are required")
	}
	if !req.Amount.IsPositive() {
		return biddingerrors.Reject(biddingerrors.ErrInvalidRequest, req.ItemID,
			"amount must be a positive number")
	}
	return nil
}

func itemNotFound(itemID int) error {
	return biddingerrors.Reject(biddingerrors.ErrItemNotFound, itemID, "auction item %d not found", itemID)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAccepted
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return metrics.OutcomeBidTooLow
	case errors.Is(err, biddingerrors.ErrItemNotFound):
		return metrics.OutcomeItemNotFound
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return metrics.OutcomeAuctionClosed
	default:
		return metrics.OutcomeInvalidRequest
	}
}
