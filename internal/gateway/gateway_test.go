package gateway

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/metrics"
	"live-auction/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type staticLister []models.AuctionItem

func (l staticLister) ListAll() []models.AuctionItem {
	return append([]models.AuctionItem(nil), l...)
}

var catalog = staticLister{
	{ID: 1, Title: "Vintage Camera", CurrentBid: decimal.NewFromInt(100)},
	{ID: 2, Title: "Oil Painting", CurrentBid: decimal.NewFromInt(250)},
}

type countingRecorder struct {
	metrics.NoopRecorder
	evicted atomic.Int64
}

func (r *countingRecorder) RecordSubscriberEvicted() { r.evicted.Add(1) }

func acceptedItem(amount int64, bidder string) models.AuctionItem {
	item := catalog[0]
	item.CurrentBid = decimal.NewFromInt(amount)
	item.HighestBidder = bidder
	return item
}

// drain returns every event currently queued for sub
func drain(sub *Subscriber) []Event {
	var events []Event
	for {
		select {
		case ev := <-sub.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func names(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Name)
	}
	return out
}

func TestGateway_Join(t *testing.T) {
	t.Parallel()

	g := NewGateway(catalog, 8, nil)
	sub := g.Join("ws")

	require.Contains(t, sub.ID(), "ws-")
	require.Equal(t, "ws", sub.Kind())
	require.Equal(t, 1, g.Count())

	events := drain(sub)
	require.Len(t, events, 1)
	require.Equal(t, EventInitialState, events[0].Name)
	require.Equal(t, InitialState{Items: catalog.ListAll()}, events[0].Data)
}

func TestGateway_NotifyOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		origin         string // "first" resolves to the first subscriber's id
		item           models.AuctionItem
		err            error
		wantOrigin     []string
		wantOthers     []string
		wantErrPayload *BidError
	}{
		{
			name:       "accepted_from_subscriber",
			origin:     "first",
			item:       acceptedItem(110, "A"),
			wantOrigin: []string{EventBidUpdate, EventBidSuccess},
			wantOthers: []string{EventBidUpdate},
		},
		{
			name:       "accepted_from_http",
			origin:     "",
			item:       acceptedItem(120, "web"),
			wantOrigin: []string{EventBidUpdate},
			wantOthers: []string{EventBidUpdate},
		},
		{
			name:       "accepted_from_departed_origin",
			origin:     "ws-gone",
			item:       acceptedItem(130, "ghost"),
			wantOrigin: []string{EventBidUpdate},
			wantOthers: []string{EventBidUpdate},
		},
		{
			name:           "bid_too_low",
			origin:         "first",
			err:            biddingerrors.Reject(biddingerrors.ErrBidTooLow, 1, "bid must exceed $%s", "110"),
			wantOrigin:     []string{EventBidError},
			wantOthers:     nil,
			wantErrPayload: &BidError{Error: "bid must exceed $110", ItemID: 1},
		},
		{
			name:           "item_not_found",
			origin:         "first",
			err:            biddingerrors.Reject(biddingerrors.ErrItemNotFound, 999, "auction item 999 not found"),
			wantOrigin:     []string{EventBidError},
			wantOthers:     nil,
			wantErrPayload: &BidError{Error: "auction item 999 not found", ItemID: 999},
		},
		{
			name:           "plain_error",
			origin:         "first",
			item:           models.AuctionItem{ID: 2},
			err:            errors.New("boom"),
			wantOrigin:     []string{EventBidError},
			wantErrPayload: &BidError{Error: "boom", ItemID: 2},
		},
		{
			name:       "rejected_from_http",
			origin:     "",
			err:        biddingerrors.Reject(biddingerrors.ErrBidTooLow, 1, "bid must exceed $100"),
			wantOrigin: nil,
			wantOthers: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := NewGateway(catalog, 8, nil)
			first := g.Join("ws")
			second := g.Join("sse")
			drain(first)
			drain(second)

			origin := tc.origin
			if origin == "first" {
				origin = first.ID()
			}

			g.NotifyOutcome(origin, tc.item, tc.err)

			originEvents := drain(first)
			require.Equal(t, tc.wantOrigin, nilIfEmpty(names(originEvents)))
			require.Equal(t, tc.wantOthers, nilIfEmpty(names(drain(second))))

			for _, ev := range originEvents {
				switch ev.Name {
				case EventBidUpdate, EventBidSuccess:
					require.Equal(t, tc.item, ev.Data)
				case EventBidError:
					require.NotNil(t, tc.wantErrPayload)
					require.Equal(t, *tc.wantErrPayload, ev.Data)
				}
			}
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestGateway_Leave(t *testing.T) {
	t.Parallel()

	g := NewGateway(catalog, 8, nil)
	sub := g.Join("ws")
	other := g.Join("ws")
	drain(sub)

	g.Leave(sub.ID())
	g.Leave(sub.ID()) // second leave is a no-op
	g.Leave("unknown")

	require.Equal(t, 1, g.Count())
	select {
	case <-sub.Done():
	default:
		t.Fatal("expected Done to be closed after Leave")
	}

	g.NotifyOutcome(other.ID(), acceptedItem(110, "A"), nil)
	require.Empty(t, drain(sub))
}

func TestGateway_EvictsSlowSubscriber(t *testing.T) {
	t.Parallel()

	recorder := &countingRecorder{}
	g := NewGateway(catalog, 2, recorder)

	slow := g.Join("ws") // holds initial-state, one slot left
	fast := g.Join("ws")

	for i := int64(1); i <= 3; i++ {
		g.NotifyOutcome("", acceptedItem(100+i, "A"), nil)
		drain(fast)
	}

	select {
	case <-slow.Done():
	default:
		t.Fatal("expected slow subscriber to be evicted")
	}
	require.Equal(t, 1, g.Count())
	require.Equal(t, []string{EventInitialState, EventBidUpdate}, names(drain(slow)))
	require.Equal(t, int64(1), recorder.evicted.Load())
}

func TestGateway_Close(t *testing.T) {
	t.Parallel()

	g := NewGateway(catalog, 4, nil)
	a := g.Join("ws")
	b := g.Join("sse")
	require.False(t, g.Closed())

	g.Close()
	require.True(t, g.Closed())
	require.Equal(t, 0, g.Count())
	for _, sub := range []*Subscriber{a, b} {
		select {
		case <-sub.Done():
		default:
			t.Fatal("expected Done to be closed after Close")
		}
	}

	late := g.Join("ws")
	require.Equal(t, 0, g.Count())
	select {
	case <-late.Done():
	default:
		t.Fatal("expected late subscriber to be closed immediately")
	}
}

// Concurrent outcomes for one item arrive at every subscriber in a single order
func TestGateway_ConsistentOrder(t *testing.T) {
	t.Parallel()

	const updates = 200
	g := NewGateway(catalog, updates+1, nil)
	subs := []*Subscriber{g.Join("ws"), g.Join("ws"), g.Join("sse")}

	var mu sync.Mutex // stands in for the item's admission lock
	next := int64(100)
	var wg sync.WaitGroup
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			next++
			g.NotifyOutcome("", acceptedItem(next, "A"), nil)
		}()
	}
	wg.Wait()

	for _, sub := range subs {
		events := drain(sub)
		require.Len(t, events, updates+1)
		require.Equal(t, EventInitialState, events[0].Name)
		for i, ev := range events[1:] {
			item := ev.Data.(models.AuctionItem)
			require.True(t, decimal.NewFromInt(int64(101+i)).Equal(item.CurrentBid))
		}
	}
}
