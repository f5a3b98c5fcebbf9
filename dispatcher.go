// dispatcher.go
package main

import "context"

// Fixed replies for events that never reach the reply generator, plus the
// fallback used when generation fails or comes back empty.
const (
	nonTextReply    = "Thanks! Can you send that as text so I can help?"
	aiDisabledReply = "Thanks for your message! We'll get back to you soon."
	fallbackReply   = "Thanks! How can I help?"
)

// ReplyGenerator produces a reply for a user's message text.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, userText string) (string, error)
}

// MessengerSender is the outbound side of the bridge.
type MessengerSender interface {
	SendText(ctx context.Context, recipientID string, text string) error
	SendAction(ctx context.Context, recipientID string, action string) error
}

// Dispatcher routes the messaging events of a webhook delivery to zero or
// more outbound sends. It holds no per-request state; collaborators are fixed
// at construction.
type Dispatcher struct {
	sender    MessengerSender
	generator ReplyGenerator
	aiEnabled bool
}

func NewDispatcher(sender MessengerSender, generator ReplyGenerator, aiEnabled bool) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		generator: generator,
		aiEnabled: aiEnabled,
	}
}

// Process walks every messaging event, in entry order then event order, and
// handles each to completion before moving to the next. Failures on one event
// never abort the rest of the batch.
func (d *Dispatcher) Process(ctx context.Context, event WebhookEvent, requestID string) {
	for _, entry := range event.Entry {
		for _, msg := range entry.Messaging {
			d.processEvent(ctx, msg, requestID)
		}
	}
}

// processEvent applies the decision policy for a single messaging event. The
// rules short-circuit: the first matching rule wins.
func (d *Dispatcher) processEvent(ctx context.Context, msg MessagingEntry, requestID string) {
	senderID := msg.Sender.ID
	if senderID == "" {
		LogDebug("[%s] Skipping event without sender ID", requestID)
		return
	}

	if msg.Delivery != nil {
		LogDebug("[%s] Skipping delivery receipt from %s", requestID, senderID)
		return
	}

	// Ignore echoes of messages the page itself sent.
	if msg.Message != nil && msg.Message.IsEcho {
		LogDebug("[%s] Skipping echo message %s", requestID, msg.Message.Mid)
		return
	}

	// Non-text content (image, sticker, etc.) gets a fixed clarification.
	if msg.Message == nil || msg.Message.Text == "" {
		LogInfo("[%s] 📎 Non-text message from %s - asking for text", requestID, senderID)
		d.sendText(ctx, senderID, nonTextReply, requestID)
		return
	}

	if !d.aiEnabled {
		LogInfo("[%s] 🤖 AI disabled - sending canned reply to %s", requestID, senderID)
		d.sendText(ctx, senderID, aiDisabledReply, requestID)
		return
	}

	LogInfo("[%s] 💬 Message from %s: %q", requestID, senderID, msg.Message.Text)

	d.sendAction(ctx, senderID, ActionTypingOn, requestID)

	reply := d.generateReply(ctx, msg.Message.Text, requestID)

	d.sendAction(ctx, senderID, ActionTypingOff, requestID)
	d.sendText(ctx, senderID, reply, requestID)
}

// generateReply calls the reply generator and substitutes the fixed fallback
// on any failure or empty output, so one bad completion never leaves the user
// without an answer or aborts the remaining events in the batch.
func (d *Dispatcher) generateReply(ctx context.Context, userText string, requestID string) string {
	reply, err := d.generator.GenerateReply(ctx, userText)
	if err != nil {
		LogError("[%s] Reply generation failed: %v", requestID, err)
		return fallbackReply
	}
	if reply == "" {
		LogWarn("[%s] Empty reply from generator - using fallback", requestID)
		return fallbackReply
	}
	return reply
}

// Send failures are logged here and go no further: the webhook response to
// the platform is already decided, and there is no retry.
func (d *Dispatcher) sendText(ctx context.Context, recipientID, text, requestID string) {
	if err := d.sender.SendText(ctx, recipientID, text); err != nil {
		LogError("[%s] Send API text error: %v", requestID, err)
	}
}

func (d *Dispatcher) sendAction(ctx context.Context, recipientID, action, requestID string) {
	if err := d.sender.SendAction(ctx, recipientID, action); err != nil {
		LogError("[%s] Sender action error: %v", requestID, err)
	}
}
