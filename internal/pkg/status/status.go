// Package status tracks per-blob pipeline progress and daily counters in
// the cache. Everything here is best-effort: without a cache server the
// package degrades to a no-op and never blocks document processing.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/facturave/reciboscan/internal/pkg/cache"
)

// Cache key formats, keyed by <container>/<objectPath>.
const (
	receiptStatusKeyFormat    = "receipt:status:%s"
	receiptDocumentKeyFormat  = "receipt:status:document:%s"
	receiptTimestampKeyFormat = "receipt:status:timestamp:%s"

	countersKeyFormat = "receipt:counters:%s" // hash field = yyyy-mm-dd
)

const statusTTL = 24 * time.Hour

// Pipeline states exposed over the status endpoint.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
	StatusFailed     = "failed"
	StatusUnknown    = "unknown"
)

// Daily counter names.
const (
	CounterStored   = "stored"
	CounterRejected = "rejected"
	CounterFailed   = "failed"
	CounterSkipped  = "skipped"
)

// Tracker records the progress of one blob through the pipeline.
type Tracker struct{}

func NewTracker() *Tracker {
	return &Tracker{}
}

// MarkProcessing flags the blob as picked up.
func (t *Tracker) MarkProcessing(blobKey string) {
	t.set(blobKey, StatusProcessing)
}

// MarkCompleted flags the blob as stored and remembers the document id.
func (t *Tracker) MarkCompleted(blobKey, documentID string) {
	t.set(blobKey, StatusCompleted)
	if err := cache.Set(fmt.Sprintf(receiptDocumentKeyFormat, blobKey), documentID, statusTTL); err != nil && !errors.Is(err, cache.ErrDisabled) {
		log.Debugf("[Status] Could not record document id for %s: %v", blobKey, err)
	}
	Count(CounterStored)
}

// MarkRejected flags a blob whose extraction missed the required fields.
func (t *Tracker) MarkRejected(blobKey string) {
	t.set(blobKey, StatusRejected)
	Count(CounterRejected)
}

// MarkFailed flags a blob whose processing errored out.
func (t *Tracker) MarkFailed(blobKey string) {
	t.set(blobKey, StatusFailed)
	Count(CounterFailed)
}

// CountSkipped bumps the counter for placeholder no-ops. They carry no
// per-blob state.
func (t *Tracker) CountSkipped() {
	Count(CounterSkipped)
}

func (t *Tracker) set(blobKey, state string) {
	if !cache.Enabled() {
		return
	}
	if err := cache.Set(fmt.Sprintf(receiptTimestampKeyFormat, blobKey), time.Now().Format(time.RFC3339), statusTTL); err != nil {
		log.Debugf("[Status] Could not set timestamp for %s: %v", blobKey, err)
	}
	if err := cache.Set(fmt.Sprintf(receiptStatusKeyFormat, blobKey), state, statusTTL); err != nil {
		log.Debugf("[Status] Could not set status for %s: %v", blobKey, err)
	}
}

// Count bumps today's field of the named pipeline counter.
func Count(counter string) {
	client := cache.GetClient()
	if client == nil {
		return
	}
	day := time.Now().Format("2006-01-02")
	if err := client.HIncrBy(context.Background(), fmt.Sprintf(countersKeyFormat, counter), day, 1).Err(); err != nil {
		log.Debugf("[Status] Could not bump %s counter: %v", counter, err)
	}
}

// Lookup reads the blob's state for the status endpoint. Unknown covers
// expired entries, blobs this instance never saw and a disabled cache
// alike.
func Lookup(blobKey string) (state string, documentID string) {
	state, err := cache.Get(fmt.Sprintf(receiptStatusKeyFormat, blobKey))
	if err != nil {
		return StatusUnknown, ""
	}
	documentID, _ = cache.Get(fmt.Sprintf(receiptDocumentKeyFormat, blobKey))
	return state, documentID
}

// LookupTimestamp returns when the blob's state was last written.
func LookupTimestamp(blobKey string) (time.Time, error) {
	raw, err := cache.Get(fmt.Sprintf(receiptTimestampKeyFormat, blobKey))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}
