// Package dispatch delivers reminder messages to users' devices.
package dispatch

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/netx"
)

// Message is the content of one push notification.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Dispatcher sends a message to a delivery address.
type Dispatcher interface {
	Send(ctx context.Context, address string, msg Message) error
}

type webhookPayload struct {
	Address string `json:"address"`
	Message
}

// WebhookDispatcher forwards messages to an HTTP push gateway.
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

// NewWebhookDispatcher posts to url; each request is bounded by timeout.
func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (d *WebhookDispatcher) Send(ctx context.Context, address string, msg Message) error {
	return netx.PostJSON(ctx, d.client, d.url, webhookPayload{Address: address, Message: msg})
}

// LogDispatcher only logs. Used when no gateway is configured.
type LogDispatcher struct {
	log logging.Logger
}

func NewLogDispatcher(log logging.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.With("module", "dispatch")}
}

func (d *LogDispatcher) Send(ctx context.Context, address string, msg Message) error {
	d.log.Info(ctx, "notification", "address", address, "title", msg.Title, "body", msg.Body)
	return nil
}
