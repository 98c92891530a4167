package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/models"
)

func TestWebhookChatSender(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewWebhookChatSender(time.Second).Send(context.Background(), srv.URL, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got["text"])
}

func TestWebhookChatSenderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewWebhookChatSender(time.Second).Send(context.Background(), srv.URL, "hello")
	assert.Error(t, err)
}

func TestWebhookChatSenderTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewWebhookChatSender(time.Minute).Send(ctx, srv.URL, "hello")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	msg := render(alertView{Shop: "demo.myshopify.com", Title: "Mug", ProductID: 7, Kind: models.AlertLowStock, Quantity: 2, Threshold: 5})
	assert.Equal(t, "Low stock: Mug (2 left)", msg.Subject)
	assert.Contains(t, msg.Body, "threshold of 5")
	assert.NotContains(t, msg.Body, "SKU")

	msg = render(alertView{ProductID: 7, Kind: models.AlertRestock, Quantity: 9})
	assert.Equal(t, "Back in stock: Product 7", msg.Subject)
}
