package catalog

import (
	"errors"
	"testing"
	"time"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/models"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))

	items := Default(mockClock.Now(), time.Hour)
	require.Len(t, items, 4)
	require.NoError(t, Validate(items))

	for i, item := range items {
		require.Equal(t, i+1, item.ID)
		require.False(t, item.HasBids())
		require.True(t, item.CurrentBid.IsPositive())
		require.True(t, item.AuctionEndsAt.After(mockClock.Now()))
		if i > 0 {
			require.True(t, item.AuctionEndsAt.After(items[i-1].AuctionEndsAt))
		}
	}
	require.Equal(t, mockClock.Now().Add(time.Hour), items[0].AuctionEndsAt)
	require.True(t, decimal.NewFromInt(100).Equal(items[0].CurrentBid))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() models.AuctionItem {
		return models.AuctionItem{ID: 1, Title: "Lot", CurrentBid: decimal.NewFromInt(10)}
	}
	with := func(mutate func(*models.AuctionItem)) func() []models.AuctionItem {
		return func() []models.AuctionItem {
			item := valid()
			mutate(&item)
			return []models.AuctionItem{item}
		}
	}

	tests := []struct {
		name          string
		items         func() []models.AuctionItem
		wantError     bool
		expectedError error
	}{
		{
			name:  "valid",
			items: func() []models.AuctionItem { return []models.AuctionItem{valid()} },
		},
		{
			name:  "fractional_opening_bid",
			items: with(func(i *models.AuctionItem) { i.CurrentBid = decimal.RequireFromString("0.50") }),
		},
		{
			name:      "missing_title",
			items:     with(func(i *models.AuctionItem) { i.Title = "" }),
			wantError: true,
		},
		{
			name:      "zero_id",
			items:     with(func(i *models.AuctionItem) { i.ID = 0 }),
			wantError: true,
		},
		{
			name:      "zero_opening_bid",
			items:     with(func(i *models.AuctionItem) { i.CurrentBid = decimal.Zero }),
			wantError: true,
		},
		{
			name:      "negative_opening_bid",
			items:     with(func(i *models.AuctionItem) { i.CurrentBid = decimal.NewFromInt(-5) }),
			wantError: true,
		},
		{
			name:          "duplicate_ids",
			items:         func() []models.AuctionItem { return []models.AuctionItem{valid(), valid()} },
			wantError:     true,
			expectedError: biddingerrors.ErrDuplicateID,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tc.items())
			if !tc.wantError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError))
			}
		})
	}
}
