package airline

import (
	"context"
	"net/http"
	"testing"

	"github.com/Domenick1991/airorders/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRoute(t *testing.T) {
	tests := map[string]string{
		"/air/offers/off_1": "/air/offers/{id}",
		"/air/orders":       "/air/orders",
		"/air/orders/ord_1/services/actions/remove":      "/air/orders/{id}/services/actions/remove",
		"/air/order_cancellations/ore_1/actions/confirm": "/air/order_cancellations/{id}/actions/confirm",
		"/air/seat_maps?offer_id=off_1":                  "/air/seat_maps",
	}
	for in, want := range tests {
		assert.Equal(t, want, route(in), in)
	}
}

func TestClient_RecordsCallOutcome(t *testing.T) {
	ok := requestsTotal.WithLabelValues(http.MethodGet, "/air/orders/{id}", outcomeOK)
	failed := requestsTotal.WithLabelValues(http.MethodGet, "/air/orders/{id}", outcomeServerError)
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeData(t, w, http.StatusOK, heldOrderJSON)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetOrder(context.Background(), "ord_1")
	require.NoError(t, err)
	_, err = c.GetOrder(context.Background(), "ord_2")
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestClient_RecordsTransportFailure(t *testing.T) {
	counter := requestsTotal.WithLabelValues(http.MethodGet, "/air/offers/{id}", outcomeTransportError)
	before := testutil.ToFloat64(counter)

	c := NewClient(config.AirlineConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}, zap.NewNop())
	_, err := c.GetOffer(context.Background(), "off_1")

	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
