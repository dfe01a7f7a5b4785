package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturave/reciboscan/internal/pkg/eventgrid"
	"github.com/facturave/reciboscan/internal/pkg/pipeline"
)

type stubProcessor struct {
	outcome pipeline.Outcome
	err     error

	events []eventgrid.Event
}

func (s *stubProcessor) Process(_ context.Context, event eventgrid.Event) (pipeline.Outcome, error) {
	s.events = append(s.events, event)
	return s.outcome, s.err
}

func newEventGridApp(p ReceiptProcessor) *fiber.App {
	app := fiber.New()
	ec := NewEventController(p)
	app.Post("/webhooks/eventgrid", ec.HandleEventGrid)
	return app
}

func postEvents(t *testing.T, app *fiber.App, payload string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/eventgrid", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

const blobCreatedPayload = `[{
	"id": "evt-1",
	"topic": "/subscriptions/0000/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/acct",
	"subject": "/blobServices/default/containers/receipts/blobs/user123/subdirABC/photo.jpg",
	"eventType": "Microsoft.Storage.BlobCreated",
	"eventTime": "2024-05-01T12:00:00Z",
	"data": {
		"api": "PutBlob",
		"contentType": "image/jpeg",
		"contentLength": 43210,
		"blobType": "BlockBlob",
		"url": "https://acct.blob.core.windows.net/receipts/user123/subdirABC/photo.jpg"
	}
}]`

func TestHandleEventGridSubscriptionValidation(t *testing.T) {
	processor := &stubProcessor{outcome: pipeline.OutcomeStored}
	app := newEventGridApp(processor)

	resp := postEvents(t, app, `[{
		"id": "val-1",
		"eventType": "Microsoft.EventGrid.SubscriptionValidationEvent",
		"data": {"validationCode": "ABC-123", "validationUrl": "https://rp-eastus.eventgrid.azure.net/echo"}
	}]`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"validationResponse":"ABC-123"}`, string(body))
	assert.Empty(t, processor.events)
}

func TestHandleEventGridValidationWinsMixedDelivery(t *testing.T) {
	processor := &stubProcessor{outcome: pipeline.OutcomeStored}
	app := newEventGridApp(processor)

	resp := postEvents(t, app, `[
		{"id": "evt-1", "eventType": "Microsoft.Storage.BlobCreated", "data": {"url": "https://acct.blob.core.windows.net/receipts/user123/subdirABC/photo.jpg"}},
		{"id": "val-2", "eventType": "Microsoft.EventGrid.SubscriptionValidationEvent", "data": {"validationCode": "XYZ-789"}}
	]`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"validationResponse":"XYZ-789"}`, string(body))
	assert.Empty(t, processor.events)
}

func TestHandleEventGridProcessesBlobCreated(t *testing.T) {
	processor := &stubProcessor{outcome: pipeline.OutcomeStored}
	app := newEventGridApp(processor)

	resp := postEvents(t, app, blobCreatedPayload)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, processor.events, 1)
	assert.Equal(t, "evt-1", processor.events[0].ID)
	assert.Equal(t, eventgrid.EventTypeBlobCreated, processor.events[0].EventType)
}

func TestHandleEventGridAcceptsSingleObject(t *testing.T) {
	processor := &stubProcessor{outcome: pipeline.OutcomeStored}
	app := newEventGridApp(processor)

	resp := postEvents(t, app, `{"id": "evt-9", "eventType": "Microsoft.Storage.BlobCreated", "data": {"url": "https://acct.blob.core.windows.net/receipts/user123/subdirABC/photo.jpg"}}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, processor.events, 1)
	assert.Equal(t, "evt-9", processor.events[0].ID)
}

func TestHandleEventGridSettledOutcomes(t *testing.T) {
	outcomes := []pipeline.Outcome{
		pipeline.OutcomeStored,
		pipeline.OutcomeSkipped,
		pipeline.OutcomeRejectedPath,
		pipeline.OutcomeRejectedFields,
		pipeline.OutcomeIgnored,
	}
	for _, outcome := range outcomes {
		processor := &stubProcessor{outcome: outcome}
		app := newEventGridApp(processor)

		resp := postEvents(t, app, blobCreatedPayload)
		assert.Equalf(t, fiber.StatusOK, resp.StatusCode, "outcome %s", outcome)
	}
}

func TestHandleEventGridPipelineFailure(t *testing.T) {
	processor := &stubProcessor{outcome: pipeline.OutcomeFailed, err: errors.New("analyze receipts/user123/subdirABC/photo.jpg: 503")}
	app := newEventGridApp(processor)

	resp := postEvents(t, app, blobCreatedPayload)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHandleEventGridUnreadablePayload(t *testing.T) {
	processor := &stubProcessor{}
	app := newEventGridApp(processor)

	for _, payload := range []string{"", "not json", `{"id": 77}`} {
		resp := postEvents(t, app, payload)
		assert.Equalf(t, fiber.StatusBadRequest, resp.StatusCode, "payload %q", payload)
		assert.Empty(t, processor.events)
	}
}
