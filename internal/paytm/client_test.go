package paytm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateTransaction_DoesNotMutateCallerBody(t *testing.T) {
	var seen map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Body map[string]string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = req.Body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body":{"resultInfo":{"resultStatus":"S"},"txnToken":"TOKEN-1"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		MerchantID:  "MID-1",
		MerchantKey: "key",
		Website:     "WEBSTAGING",
		GatewayURL:  srv.URL,
		CallbackURL: "http://localhost/callback",
	})

	body := map[string]string{
		"ORDER_ID":   "FRUNKO_x_1",
		"TXN_AMOUNT": "100.00",
		"CUST_ID":    "cust-1",
	}

	token, err := client.InitiateTransaction(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN-1", token)

	// credentials reach the wire but never leak back into the caller's map
	assert.Equal(t, map[string]string{
		"ORDER_ID":   "FRUNKO_x_1",
		"TXN_AMOUNT": "100.00",
		"CUST_ID":    "cust-1",
	}, body)
	assert.Equal(t, "MID-1", seen["MID"])
	assert.Equal(t, "WEBSTAGING", seen["WEBSITE"])
	assert.Equal(t, "http://localhost/callback", seen["CALLBACK_URL"])
	assert.Equal(t, "FRUNKO_x_1", seen["ORDER_ID"])
}

func TestInitiateTransaction_RejectionCarriesGatewayMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body":{"resultInfo":{"resultStatus":"F","resultMsg":"invalid merchant"}}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{MerchantID: "MID-1", MerchantKey: "key", GatewayURL: srv.URL})

	_, err := client.InitiateTransaction(context.Background(), map[string]string{"ORDER_ID": "FRUNKO_x_2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.Contains(t, err.Error(), "invalid merchant")
}
