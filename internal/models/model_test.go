package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAuctionItem_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "whole", amount: "110", want: `"currentBid":110`},
		{name: "fraction", amount: "110.5", want: `"currentBid":110.5`},
		{name: "cents", amount: "99.99", want: `"currentBid":99.99`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := AuctionItem{
				ID:            3,
				Title:         "Brass Telescope",
				CurrentBid:    decimal.RequireFromString(tc.amount),
				HighestBidder: "alice",
				AuctionEndsAt: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
			}

			raw, err := json.Marshal(item)
			require.NoError(t, err)
			require.Contains(t, string(raw), tc.want)
			require.Contains(t, string(raw), `"highestBidder":"alice"`)
			require.NotContains(t, string(raw), `"image"`)

			var back AuctionItem
			require.NoError(t, json.Unmarshal(raw, &back))
			require.True(t, item.CurrentBid.Equal(back.CurrentBid))
			require.Equal(t, item.ID, back.ID)
			require.Equal(t, item.Title, back.Title)
			require.True(t, item.AuctionEndsAt.Equal(back.AuctionEndsAt))
		})
	}
}

func TestAuctionItem_MarshalJSONLeavesDecimalDefaults(t *testing.T) {
	_, err := json.Marshal([]AuctionItem{{ID: 1, Title: "Lot", CurrentBid: decimal.NewFromInt(5)}})
	require.NoError(t, err)

	// other decimals in the process keep the library's quoted form
	require.False(t, decimal.MarshalJSONWithoutQuotes)
	raw, err := json.Marshal(decimal.NewFromInt(5))
	require.NoError(t, err)
	require.Equal(t, `"5"`, string(raw))
}
