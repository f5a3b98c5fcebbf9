// types.go
package main

// WebhookEvent represents the incoming webhook envelope from Facebook
type WebhookEvent struct {
	Object string      `json:"object"`
	Entry  []EntryData `json:"entry"`
}

// EntryData represents each entry in the webhook envelope
type EntryData struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEntry `json:"messaging"`
}

// MessagingEntry represents a single messaging event in the webhook
type MessagingEntry struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message  *MessageData  `json:"message"`
	Delivery *DeliveryData `json:"delivery"`
}

// MessageData represents the actual message content
type MessageData struct {
	Mid    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}

// DeliveryData represents a delivery receipt from Facebook
type DeliveryData struct {
	Mids      []string `json:"mids"`
	Watermark int64    `json:"watermark"`
}
