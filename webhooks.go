// webhooks.go
package main

import (
	"encoding/json"
	"io"
	"net/http"
)

// webhookHandler serves the /webhook endpoint: the one-time subscription
// handshake on GET and event deliveries on POST.
type webhookHandler struct {
	verifyToken string
	dispatcher  *Dispatcher
}

func newWebhookHandler(verifyToken string, dispatcher *Dispatcher) http.HandlerFunc {
	h := &webhookHandler{
		verifyToken: verifyToken,
		dispatcher:  dispatcher,
	}
	return h.handle
}

func (h *webhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleVerification(w, r)
	case http.MethodPost:
		h.handleEvent(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleVerification answers Meta's webhook subscription handshake: echo the
// challenge iff the mode is "subscribe" and the token matches exactly.
func (h *webhookHandler) handleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	// An unset verify token means verification can never succeed.
	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		LogInfo("✅ Webhook verification successful")
		w.Write([]byte(challenge))
		return
	}

	LogWarn("Webhook verification failed (mode=%q)", mode)
	http.Error(w, "Verification failed", http.StatusForbidden)
}

// handleEvent processes one webhook delivery. The platform retries deliveries
// that are not acknowledged, so the response is 200 "OK" no matter what
// happens while dispatching - a failed send must not trigger a retry storm.
func (h *webhookHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	requestID := generateRequestID()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		LogError("[%s] Error reading webhook body: %v", requestID, err)
		acknowledge(w)
		return
	}

	LogDebug("[%s] 📥 Raw webhook payload: %d bytes", requestID, len(body))

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		LogError("[%s] Error parsing webhook JSON: %v", requestID, err)
		acknowledge(w)
		return
	}

	// Messenger page events come as object=page; anything else is
	// acknowledged and dropped.
	if event.Object != "page" {
		LogDebug("[%s] Ignoring webhook object %q", requestID, event.Object)
		acknowledge(w)
		return
	}

	totalMessages := 0
	for _, entry := range event.Entry {
		totalMessages += len(entry.Messaging)
	}
	LogInfo("[%s] 📝 Webhook: %d entries, %d messages", requestID, len(event.Entry), totalMessages)

	// All sends for this delivery complete before the acknowledgment goes
	// out; ordering across separate deliveries is up to the platform.
	h.dispatcher.Process(r.Context(), event, requestID)

	acknowledge(w)
}

func acknowledge(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleHealth reports process liveness.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
