package notify

import (
	"log/slog"
	"sync"
	"time"
)

// SubscriptionTimeout is how long a subscriber may wait for a terminal
// payment event before its stream is closed without one.
const SubscriptionTimeout = 5 * time.Minute

// Event is a terminal payment outcome pushed to a waiting client.
type Event struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
}

// Hub fans payment outcomes out to whichever client is waiting on a checkout
// request id. At most one subscriber is registered per id; a later subscriber
// replaces an earlier one. The hub keeps no durable queue: publishing with no
// subscriber registered is a no-op.
type Hub struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]chan Event),
	}
}

// Subscribe registers a one-shot delivery channel for the checkout request
// id. The returned cancel func removes the registration; it is safe to call
// after delivery.
func (h *Hub) Subscribe(checkoutRequestID string) (<-chan Event, func()) {
	ch := make(chan Event, 1)

	h.mu.Lock()
	if old, ok := h.subs[checkoutRequestID]; ok {
		close(old)
	}
	h.subs[checkoutRequestID] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if current, ok := h.subs[checkoutRequestID]; ok && current == ch {
			delete(h.subs, checkoutRequestID)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers the terminal event to the registered subscriber, if any,
// and unregisters it. Delivery happens at most once per subscription.
func (h *Hub) Publish(checkoutRequestID, status, message string) {
	h.mu.Lock()
	ch, ok := h.subs[checkoutRequestID]
	if ok {
		delete(h.subs, checkoutRequestID)
	}
	h.mu.Unlock()

	if !ok {
		slog.Debug("no subscriber for payment update", "checkout_request_id", checkoutRequestID, "status", status)
		return
	}

	ch <- Event{
		CheckoutRequestID: checkoutRequestID,
		Status:            status,
		Message:           message,
	}
	close(ch)
}

// Subscribers reports the number of active registrations.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
