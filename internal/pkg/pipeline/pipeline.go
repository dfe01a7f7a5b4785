// Package pipeline drives a receipt blob from its creation event to a
// stored document.
package pipeline

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/facturave/reciboscan/app/models"
	"github.com/facturave/reciboscan/internal/pkg/blobpath"
	"github.com/facturave/reciboscan/internal/pkg/docintel"
	"github.com/facturave/reciboscan/internal/pkg/eventgrid"
	"github.com/facturave/reciboscan/internal/pkg/imagenorm"
)

// Outcome classifies how the pipeline settled one event.
type Outcome string

const (
	OutcomeStored         Outcome = "stored"
	OutcomeSkipped        Outcome = "skipped_placeholder"
	OutcomeRejectedPath   Outcome = "rejected_path"
	OutcomeRejectedFields Outcome = "rejected_fields"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeFailed         Outcome = "failed"
)

// BlobFetcher downloads the blob an event points at.
type BlobFetcher interface {
	Fetch(ctx context.Context, container, objectPath string) ([]byte, error)
}

// UsernameResolver maps a storage owner to a display name.
type UsernameResolver interface {
	Lookup(ctx context.Context, ownerID string) (string, error)
}

// Extractor runs the document analysis on image bytes.
type Extractor interface {
	Analyze(ctx context.Context, imageData []byte) (*docintel.AnalyzeResult, error)
}

// DocumentWriter persists the finished receipt document.
type DocumentWriter interface {
	Write(ctx context.Context, doc *models.ReceiptDocument) error
}

// StatusTracker records per-blob progress. Implementations must never
// block or fail the pipeline.
type StatusTracker interface {
	MarkProcessing(blobKey string)
	MarkCompleted(blobKey, documentID string)
	MarkRejected(blobKey string)
	MarkFailed(blobKey string)
	CountSkipped()
}

// Processor wires the collaborators together.
type Processor struct {
	fetcher   BlobFetcher
	resolver  UsernameResolver
	extractor Extractor
	writer    DocumentWriter
	tracker   StatusTracker

	normalize func([]byte) ([]byte, error)
}

func NewProcessor(fetcher BlobFetcher, resolver UsernameResolver, extractor Extractor, writer DocumentWriter, tracker StatusTracker) *Processor {
	return &Processor{
		fetcher:   fetcher,
		resolver:  resolver,
		extractor: extractor,
		writer:    writer,
		tracker:   tracker,
		normalize: imagenorm.Normalize,
	}
}

// Process handles one delivered event. A nil error means the invocation
// is settled from the host's point of view, whatever the outcome. A non
// nil error asks the host to fail the invocation; the grid redelivers the
// event and a later retry writes a fresh document.
func (p *Processor) Process(ctx context.Context, event eventgrid.Event) (Outcome, error) {
	switch event.EventType {
	case eventgrid.EventTypeBlobCreated:
		return p.processBlobCreated(ctx, event)
	default:
		log.Infof("[Pipeline] Ignoring event %s with type %s", event.ID, event.EventType)
		return OutcomeIgnored, nil
	}
}

func (p *Processor) processBlobCreated(ctx context.Context, event eventgrid.Event) (Outcome, error) {
	data, err := event.AsBlobCreated()
	if err != nil {
		log.Errorf("[Pipeline] Event %s carries no usable payload: %v", event.ID, err)
		return OutcomeIgnored, nil
	}
	if data.URL == "" {
		log.Errorf("[Pipeline] Event %s carries no blob URL", event.ID)
		return OutcomeIgnored, nil
	}

	parsed, err := blobpath.Parse(data.URL)
	if err != nil {
		log.Errorf("[Pipeline] Dropping event %s: %v", event.ID, err)
		return OutcomeRejectedPath, nil
	}
	if parsed.Placeholder {
		log.Infof("[Pipeline] Skipping placeholder blob %s", data.URL)
		p.tracker.CountSkipped()
		return OutcomeSkipped, nil
	}

	blobKey := parsed.Key()
	p.tracker.MarkProcessing(blobKey)
	log.Infof("[Pipeline] Processing %s for owner %s", blobKey, parsed.OwnerID)

	// The relational lookup shares nothing with the extraction leg, so it
	// runs alongside it.
	type lookupResult struct {
		username string
		err      error
	}
	lookupCh := make(chan lookupResult, 1)
	go func() {
		username, err := p.resolver.Lookup(ctx, parsed.OwnerID)
		lookupCh <- lookupResult{username: username, err: err}
	}()

	raw, err := p.fetcher.Fetch(ctx, parsed.Container, parsed.ObjectPath)
	if err != nil {
		p.tracker.MarkFailed(blobKey)
		return OutcomeFailed, fmt.Errorf("fetch %s: %w", blobKey, err)
	}

	imageData, err := p.normalize(raw)
	if err != nil {
		log.Warnf("[Pipeline] Could not normalize %s, sending original bytes: %v", blobKey, err)
		imageData = raw
	}

	result, err := p.extractor.Analyze(ctx, imageData)
	if err != nil {
		p.tracker.MarkFailed(blobKey)
		return OutcomeFailed, fmt.Errorf("analyze %s: %w", blobKey, err)
	}
	receipt := buildReceipt(result)

	var username *string
	if lookup := <-lookupCh; lookup.err != nil {
		log.Warnf("[Pipeline] Proceeding without username for owner %s: %v", parsed.OwnerID, lookup.err)
	} else {
		username = &lookup.username
	}

	if !receipt.HasRequiredFields() {
		log.Warnf("[Pipeline] Rejecting %s: extraction is missing fechaTransaccion or montoTotal", blobKey)
		p.tracker.MarkRejected(blobKey)
		return OutcomeRejectedFields, nil
	}

	doc := models.NewReceiptDocument(parsed.OwnerID, username, parsed.Subdirectory, data.URL, receipt)
	if err := p.writer.Write(ctx, doc); err != nil {
		p.tracker.MarkFailed(blobKey)
		return OutcomeFailed, fmt.Errorf("store document for %s: %w", blobKey, err)
	}

	p.tracker.MarkCompleted(blobKey, doc.ID)
	log.Infof("[Pipeline] Stored document %s for %s", doc.ID, blobKey)
	return OutcomeStored, nil
}
