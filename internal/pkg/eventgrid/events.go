// Package eventgrid models the webhook envelope Azure Event Grid delivers
// to push subscribers.
package eventgrid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event types this service reacts to. Everything else is acknowledged and
// dropped.
const (
	EventTypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
	EventTypeBlobCreated            = "Microsoft.Storage.BlobCreated"
)

// Event is one entry of a delivery. Data stays raw until the event type
// is known.
type Event struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic,omitempty"`
	Subject     string          `json:"subject,omitempty"`
	EventType   string          `json:"eventType"`
	EventTime   time.Time       `json:"eventTime"`
	DataVersion string          `json:"dataVersion,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// BlobCreatedData is the payload of Microsoft.Storage.BlobCreated events.
type BlobCreatedData struct {
	API           string `json:"api,omitempty"`
	ContentType   string `json:"contentType,omitempty"`
	ContentLength int64  `json:"contentLength,omitempty"`
	BlobType      string `json:"blobType,omitempty"`
	URL           string `json:"url"`
}

// SubscriptionValidationData carries the handshake code Event Grid expects
// echoed back when a subscription endpoint is registered.
type SubscriptionValidationData struct {
	ValidationCode string `json:"validationCode"`
	ValidationURL  string `json:"validationUrl,omitempty"`
}

// ValidationResponse is the in-band answer to a validation handshake.
type ValidationResponse struct {
	ValidationResponse string `json:"validationResponse"`
}

// ParseEvents decodes a webhook delivery. Event Grid posts an array of
// events; a single bare object is accepted as well.
func ParseEvents(payload []byte) ([]Event, error) {
	body := bytes.TrimSpace(payload)
	if len(body) == 0 {
		return nil, errors.New("empty event payload")
	}

	if body[0] == '[' {
		var events []Event
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("decode event array: %w", err)
		}
		return events, nil
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return []Event{event}, nil
}

// AsSubscriptionValidation decodes the handshake payload of a validation
// event.
func (e *Event) AsSubscriptionValidation() (*SubscriptionValidationData, error) {
	if e.EventType != EventTypeSubscriptionValidation {
		return nil, fmt.Errorf("event %s has type %s, not %s", e.ID, e.EventType, EventTypeSubscriptionValidation)
	}

	var data SubscriptionValidationData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("decode subscription validation data: %w", err)
	}
	if data.ValidationCode == "" {
		return nil, errors.New("subscription validation event missing validationCode")
	}
	return &data, nil
}

// AsBlobCreated decodes the payload of a blob created event.
func (e *Event) AsBlobCreated() (*BlobCreatedData, error) {
	if e.EventType != EventTypeBlobCreated {
		return nil, fmt.Errorf("event %s has type %s, not %s", e.ID, e.EventType, EventTypeBlobCreated)
	}

	var data BlobCreatedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("decode blob created data: %w", err)
	}
	return &data, nil
}
