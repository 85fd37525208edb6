package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("auction")

	m.RecordBid(OutcomeAccepted)
	m.RecordBid(OutcomeAccepted)
	m.RecordBid(OutcomeBidTooLow)
	m.RecordSubscribers(3)
	m.RecordSubscribers(2)
	m.RecordEventSent("bid-update")
	m.RecordSubscriberEvicted()
	m.RecordFeedError()
	m.RecordAdmissionWait(2 * time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.bids.WithLabelValues(OutcomeAccepted)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.bids.WithLabelValues(OutcomeBidTooLow)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.bids.WithLabelValues(OutcomeItemNotFound)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.subscribers))
	require.Equal(t, 1.0, testutil.ToFloat64(m.eventsSent.WithLabelValues("bid-update")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.subscribersEvicted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.feedErrors))
	require.Equal(t, 1, testutil.CollectAndCount(m.admissionWait))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("auction")
	m.RecordBid(OutcomeAccepted)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `auction_bids_total{outcome="accepted"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	require.NotPanics(t, func() {
		r.RecordBid(OutcomeAccepted)
		r.RecordAdmissionWait(time.Second)
		r.RecordSubscribers(1)
		r.RecordEventSent("x")
		r.RecordSubscriberEvicted()
		r.RecordFeedError()
	})
}
