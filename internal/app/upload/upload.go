// internal/app/upload/upload.go

// Package upload implements the document upload pipeline: validate the
// request, stream the bytes to the blob store with progress, then write
// the document record. Callers consume a phase-event channel that closes
// after the terminal event.
package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/msalazarj/primebug/internal/app/provider/blob"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Phase identifies where an upload is in its lifecycle.
type Phase string

const (
	PhaseTransferring Phase = "transferring"
	PhaseSaving       Phase = "saving"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

// Reason classifies terminal failures.
type Reason string

const (
	ReasonValidation Reason = "validation"
	ReasonTransfer   Reason = "transfer"
	ReasonMetadata   Reason = "metadata"
)

// Event is one pipeline progress notification. Percent is meaningful in
// the transferring phase; Record is set on done; Reason and Err on failed.
type Event struct {
	Phase   Phase
	Percent int
	Record  *models.DocumentRecord
	Reason  Reason
	Err     error
}

// Request describes one upload.
type Request struct {
	File        io.Reader
	Size        int64
	FileName    string
	ContentType string
	ProjectID   primitive.ObjectID
	Version     string
	Category    string
	UploaderID  primitive.ObjectID
	Uploader    string
}

// DocumentStore is the slice of the document store the pipeline needs.
type DocumentStore interface {
	Create(ctx context.Context, d models.DocumentRecord) (models.DocumentRecord, error)
}

// Pipeline runs uploads. Concurrent uploads are independent; the pipeline
// does not dedupe same-name requests.
type Pipeline struct {
	blobs blob.Store
	docs  DocumentStore
	log   *zap.Logger
}

func NewPipeline(blobs blob.Store, docs DocumentStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{blobs: blobs, docs: docs, log: logger}
}

// Upload starts the pipeline and returns its event channel. The channel
// carries zero or more transferring events, at most one saving event, and
// exactly one terminal event (done or failed), then closes.
func (p *Pipeline) Upload(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 8)
	go func() {
		defer close(events)
		p.run(ctx, req, events)
	}()
	return events
}

func (p *Pipeline) run(ctx context.Context, req Request, events chan<- Event) {
	if err := validate(req); err != nil {
		events <- Event{Phase: PhaseFailed, Reason: ReasonValidation, Err: err}
		return
	}

	storagePath := buildStoragePath(req.ProjectID, req.FileName)

	events <- Event{Phase: PhaseTransferring, Percent: 0}
	lastPercent := 0
	progress := func(transferred, total int64) {
		if total <= 0 {
			return
		}
		pct := int(transferred * 100 / total)
		if pct > 100 {
			pct = 100
		}
		if pct <= lastPercent {
			return
		}
		lastPercent = pct
		select {
		case events <- Event{Phase: PhaseTransferring, Percent: pct}:
		default:
			// Slow consumers miss intermediate percentages, never
			// terminal events.
		}
	}

	if err := p.blobs.Put(ctx, storagePath, req.File, req.Size, req.ContentType, progress); err != nil {
		p.log.Warn("blob transfer failed",
			zap.String("path", storagePath), zap.Error(err))
		events <- Event{Phase: PhaseFailed, Reason: ReasonTransfer, Err: err}
		return
	}

	url, err := p.blobs.URL(ctx, storagePath)
	if err != nil {
		// The bytes are stored but unreferenced. Orphan cleanup is a
		// separate maintenance concern, not attempted here.
		p.log.Warn("download locator resolution failed, blob orphaned",
			zap.String("path", storagePath), zap.Error(err))
		events <- Event{Phase: PhaseFailed, Reason: ReasonMetadata, Err: err}
		return
	}

	events <- Event{Phase: PhaseSaving}

	record, err := p.docs.Create(ctx, models.DocumentRecord{
		Name:         req.FileName,
		URL:          url,
		Version:      req.Version,
		Category:     req.Category,
		ProjectID:    req.ProjectID,
		UploaderID:   req.UploaderID,
		UploaderName: req.Uploader,
		StoragePath:  storagePath,
		Size:         req.Size,
	})
	if err != nil {
		p.log.Warn("document record write failed, blob orphaned",
			zap.String("path", storagePath), zap.Error(err))
		events <- Event{Phase: PhaseFailed, Reason: ReasonMetadata, Err: err}
		return
	}

	events <- Event{Phase: PhaseDone, Record: &record}
}

func validate(req Request) error {
	switch {
	case req.File == nil:
		return fmt.Errorf("no file provided")
	case req.FileName == "":
		return fmt.Errorf("file name is required")
	case req.ProjectID.IsZero():
		return fmt.Errorf("project is required")
	case req.UploaderID.IsZero():
		return fmt.Errorf("uploader is required")
	case req.Category != "" && !models.IsValidDocumentCategory(req.Category):
		return fmt.Errorf("unknown category %q", req.Category)
	}
	return nil
}

// buildStoragePath places blobs under their project with a millisecond
// timestamp prefix so repeated uploads of the same name never collide.
func buildStoragePath(projectID primitive.ObjectID, fileName string) string {
	return path.Join(
		"projects",
		projectID.Hex(),
		fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeFileName(fileName)),
	)
}

// sanitizeFileName strips path separators and control characters from a
// client-supplied name.
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			continue
		case r == '/' || r == '\\':
			continue
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "archivo"
	}
	return out
}
