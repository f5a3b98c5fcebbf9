// dispatcher_test.go
package main

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type sentCall struct {
	Kind      string // "text" or "action"
	Recipient string
	Payload   string // message text or sender action
}

type fakeSender struct {
	calls []sentCall
	err   error
}

func (f *fakeSender) SendText(ctx context.Context, recipientID string, text string) error {
	f.calls = append(f.calls, sentCall{Kind: "text", Recipient: recipientID, Payload: text})
	return f.err
}

func (f *fakeSender) SendAction(ctx context.Context, recipientID string, action string) error {
	f.calls = append(f.calls, sentCall{Kind: "action", Recipient: recipientID, Payload: action})
	return f.err
}

type fakeGenerator struct {
	calls []string
	reply string
	err   error
}

func (f *fakeGenerator) GenerateReply(ctx context.Context, userText string) (string, error) {
	f.calls = append(f.calls, userText)
	return f.reply, f.err
}

func textEvent(senderID, text string) MessagingEntry {
	var msg MessagingEntry
	msg.Sender.ID = senderID
	msg.Message = &MessageData{Mid: "m1", Text: text}
	return msg
}

func singleEventDelivery(msg MessagingEntry) WebhookEvent {
	return WebhookEvent{
		Object: "page",
		Entry:  []EntryData{{ID: "page-1", Messaging: []MessagingEntry{msg}}},
	}
}

func TestDispatcherDecisionPolicy(t *testing.T) {
	echoMsg := textEvent("123", "hi")
	echoMsg.Message.IsEcho = true

	deliveryMsg := MessagingEntry{Delivery: &DeliveryData{Watermark: 1}}
	deliveryMsg.Sender.ID = "123"

	noSenderMsg := textEvent("", "hi")

	nonTextMsg := MessagingEntry{}
	nonTextMsg.Sender.ID = "123"
	nonTextMsg.Message = &MessageData{Mid: "m2"}

	noMessageMsg := MessagingEntry{}
	noMessageMsg.Sender.ID = "123"

	tests := []struct {
		name      string
		msg       MessagingEntry
		aiEnabled bool
		genReply  string
		genErr    error
		wantCalls []sentCall
		wantGen   []string
	}{
		{
			name:      "missing sender is skipped",
			msg:       noSenderMsg,
			aiEnabled: true,
			wantCalls: nil,
		},
		{
			name:      "echo message is skipped",
			msg:       echoMsg,
			aiEnabled: true,
			wantCalls: nil,
		},
		{
			name:      "delivery receipt is skipped",
			msg:       deliveryMsg,
			aiEnabled: true,
			wantCalls: nil,
		},
		{
			name:      "non-text message gets clarification",
			msg:       nonTextMsg,
			aiEnabled: true,
			wantCalls: []sentCall{
				{Kind: "text", Recipient: "123", Payload: "Thanks! Can you send that as text so I can help?"},
			},
		},
		{
			name:      "missing message object gets clarification",
			msg:       noMessageMsg,
			aiEnabled: true,
			wantCalls: []sentCall{
				{Kind: "text", Recipient: "123", Payload: "Thanks! Can you send that as text so I can help?"},
			},
		},
		{
			name:      "ai disabled sends canned reply without generating",
			msg:       textEvent("123", "hi"),
			aiEnabled: false,
			wantCalls: []sentCall{
				{Kind: "text", Recipient: "123", Payload: "Thanks for your message! We'll get back to you soon."},
			},
		},
		{
			name:      "ai enabled sends typing indicators around generated reply",
			msg:       textEvent("123", "where is my order?"),
			aiEnabled: true,
			genReply:  "Could you share your order number?",
			wantCalls: []sentCall{
				{Kind: "action", Recipient: "123", Payload: "typing_on"},
				{Kind: "action", Recipient: "123", Payload: "typing_off"},
				{Kind: "text", Recipient: "123", Payload: "Could you share your order number?"},
			},
			wantGen: []string{"where is my order?"},
		},
		{
			name:      "empty generated reply falls back",
			msg:       textEvent("123", "hello"),
			aiEnabled: true,
			genReply:  "",
			wantCalls: []sentCall{
				{Kind: "action", Recipient: "123", Payload: "typing_on"},
				{Kind: "action", Recipient: "123", Payload: "typing_off"},
				{Kind: "text", Recipient: "123", Payload: "Thanks! How can I help?"},
			},
			wantGen: []string{"hello"},
		},
		{
			name:      "generator failure falls back instead of aborting",
			msg:       textEvent("123", "hello"),
			aiEnabled: true,
			genErr:    errors.New("upstream timeout"),
			wantCalls: []sentCall{
				{Kind: "action", Recipient: "123", Payload: "typing_on"},
				{Kind: "action", Recipient: "123", Payload: "typing_off"},
				{Kind: "text", Recipient: "123", Payload: "Thanks! How can I help?"},
			},
			wantGen: []string{"hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			gen := &fakeGenerator{reply: tt.genReply, err: tt.genErr}
			d := NewDispatcher(sender, gen, tt.aiEnabled)

			d.Process(context.Background(), singleEventDelivery(tt.msg), "test")

			if !reflect.DeepEqual(sender.calls, tt.wantCalls) {
				t.Errorf("sends = %+v, want %+v", sender.calls, tt.wantCalls)
			}
			if !reflect.DeepEqual(gen.calls, tt.wantGen) {
				t.Errorf("generator calls = %v, want %v", gen.calls, tt.wantGen)
			}
		})
	}
}

func TestDispatcherProcessesEventsInOrder(t *testing.T) {
	event := WebhookEvent{
		Object: "page",
		Entry: []EntryData{
			{ID: "page-1", Messaging: []MessagingEntry{textEvent("111", "first")}},
			{ID: "page-1", Messaging: []MessagingEntry{textEvent("222", "second"), textEvent("333", "third")}},
		},
	}

	sender := &fakeSender{}
	gen := &fakeGenerator{reply: "ok"}
	d := NewDispatcher(sender, gen, true)

	d.Process(context.Background(), event, "test")

	wantGen := []string{"first", "second", "third"}
	if !reflect.DeepEqual(gen.calls, wantGen) {
		t.Errorf("generator calls = %v, want %v", gen.calls, wantGen)
	}

	// Three events, three sends each: typing_on, typing_off, text.
	if len(sender.calls) != 9 {
		t.Fatalf("got %d sends, want 9: %+v", len(sender.calls), sender.calls)
	}
	wantRecipients := []string{"111", "111", "111", "222", "222", "222", "333", "333", "333"}
	for i, call := range sender.calls {
		if call.Recipient != wantRecipients[i] {
			t.Errorf("send %d went to %s, want %s", i, call.Recipient, wantRecipients[i])
		}
	}
}

func TestDispatcherContinuesAfterSendFailure(t *testing.T) {
	event := WebhookEvent{
		Object: "page",
		Entry: []EntryData{
			{ID: "page-1", Messaging: []MessagingEntry{
				textEvent("111", "first"),
				textEvent("222", "second"),
			}},
		},
	}

	sender := &fakeSender{err: errors.New("send api error (status 400)")}
	gen := &fakeGenerator{reply: "ok"}
	d := NewDispatcher(sender, gen, true)

	d.Process(context.Background(), event, "test")

	// Failed sends are logged only; both events still run to completion.
	if len(sender.calls) != 6 {
		t.Errorf("got %d send attempts, want 6", len(sender.calls))
	}
	if len(gen.calls) != 2 {
		t.Errorf("got %d generator calls, want 2", len(gen.calls))
	}
}
