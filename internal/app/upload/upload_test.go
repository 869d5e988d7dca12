package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/msalazarj/primebug/internal/app/provider/blob"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeBlobStore struct {
	mu     sync.Mutex
	puts   []string
	putErr error
	urlErr error
}

func (f *fakeBlobStore) Put(_ context.Context, path string, r io.Reader, size int64, _ string, progress blob.ProgressFunc) error {
	f.mu.Lock()
	f.puts = append(f.puts, path)
	f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	// Consume through a progress reader the way a real adapter does.
	pr := blob.NewProgressReader(r, size, progress)
	_, err := io.Copy(io.Discard, pr)
	return err
}

func (f *fakeBlobStore) URL(_ context.Context, path string) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://blobs.example.com/" + path, nil
}

func (f *fakeBlobStore) Remove(context.Context, string) error { return nil }

func (f *fakeBlobStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

type fakeDocStore struct {
	mu      sync.Mutex
	created []models.DocumentRecord
	err     error
}

func (f *fakeDocStore) Create(_ context.Context, d models.DocumentRecord) (models.DocumentRecord, error) {
	if f.err != nil {
		return models.DocumentRecord{}, f.err
	}
	d.ID = primitive.NewObjectID()
	f.mu.Lock()
	f.created = append(f.created, d)
	f.mu.Unlock()
	return d, nil
}

func (f *fakeDocStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func validRequest() Request {
	return Request{
		File:       strings.NewReader("contenido del documento"),
		Size:       23,
		FileName:   "ers-v2.pdf",
		ProjectID:  primitive.NewObjectID(),
		Version:    "2.0",
		Category:   models.CategoryERS,
		UploaderID: primitive.NewObjectID(),
		Uploader:   "Ana Salazar",
	}
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	if len(out) == 0 {
		t.Fatal("pipeline emitted no events")
	}
	return out
}

func terminal(events []Event) Event { return events[len(events)-1] }

func TestUpload_HappyPath(t *testing.T) {
	blobs := &fakeBlobStore{}
	docs := &fakeDocStore{}
	p := NewPipeline(blobs, docs, zap.NewNop())

	events := collect(t, p.Upload(context.Background(), validRequest()))

	last := terminal(events)
	if last.Phase != PhaseDone {
		t.Fatalf("terminal phase = %s, want done (err: %v)", last.Phase, last.Err)
	}
	if last.Record == nil || last.Record.ID.IsZero() {
		t.Fatal("done event should carry the stored record")
	}
	if last.Record.URL == "" || last.Record.StoragePath == "" {
		t.Errorf("record missing locator fields: %+v", last.Record)
	}
	if docs.count() != 1 {
		t.Errorf("records written = %d, want 1", docs.count())
	}

	sawSaving := false
	for _, e := range events {
		if e.Phase == PhaseSaving {
			sawSaving = true
		}
	}
	if !sawSaving {
		t.Error("expected a saving event before done")
	}
}

func TestUpload_ProgressNonDecreasing(t *testing.T) {
	blobs := &fakeBlobStore{}
	docs := &fakeDocStore{}
	p := NewPipeline(blobs, docs, zap.NewNop())

	req := validRequest()
	req.File = strings.NewReader(strings.Repeat("x", 1000))
	req.Size = 1000

	events := collect(t, p.Upload(context.Background(), req))

	prev := -1
	for _, e := range events {
		if e.Phase != PhaseTransferring {
			continue
		}
		if e.Percent < prev {
			t.Fatalf("percent decreased: %d after %d", e.Percent, prev)
		}
		if e.Percent > 100 {
			t.Fatalf("percent out of range: %d", e.Percent)
		}
		prev = e.Percent
	}
	if prev < 0 {
		t.Fatal("expected at least one transferring event")
	}
}

func TestUpload_ValidationFailsBeforeAnyStoreCall(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing file", func(r *Request) { r.File = nil }},
		{"missing name", func(r *Request) { r.FileName = "" }},
		{"missing project", func(r *Request) { r.ProjectID = primitive.NilObjectID }},
		{"missing uploader", func(r *Request) { r.UploaderID = primitive.NilObjectID }},
		{"bad category", func(r *Request) { r.Category = "Hoja de Cálculo" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blobs := &fakeBlobStore{}
			docs := &fakeDocStore{}
			p := NewPipeline(blobs, docs, zap.NewNop())

			req := validRequest()
			tc.mutate(&req)
			events := collect(t, p.Upload(context.Background(), req))

			last := terminal(events)
			if last.Phase != PhaseFailed || last.Reason != ReasonValidation {
				t.Fatalf("got %s/%s, want failed/validation", last.Phase, last.Reason)
			}
			if blobs.putCount() != 0 || docs.count() != 0 {
				t.Error("validation failure must not touch any store")
			}
		})
	}
}

func TestUpload_TransferFailureWritesNoRecord(t *testing.T) {
	blobs := &fakeBlobStore{putErr: &blob.Error{Code: blob.CodeTransfer, Op: "put", Err: errors.New("reset")}}
	docs := &fakeDocStore{}
	p := NewPipeline(blobs, docs, zap.NewNop())

	events := collect(t, p.Upload(context.Background(), validRequest()))

	last := terminal(events)
	if last.Phase != PhaseFailed || last.Reason != ReasonTransfer {
		t.Fatalf("got %s/%s, want failed/transfer", last.Phase, last.Reason)
	}
	if docs.count() != 0 {
		t.Error("no record may be written after a failed transfer")
	}
}

func TestUpload_RecordWriteFailureLeavesOrphanBlob(t *testing.T) {
	blobs := &fakeBlobStore{}
	docs := &fakeDocStore{err: errors.New("write refused")}
	p := NewPipeline(blobs, docs, zap.NewNop())

	events := collect(t, p.Upload(context.Background(), validRequest()))

	last := terminal(events)
	if last.Phase != PhaseFailed || last.Reason != ReasonMetadata {
		t.Fatalf("got %s/%s, want failed/metadata", last.Phase, last.Reason)
	}
	if blobs.putCount() != 1 {
		t.Errorf("blob puts = %d, want 1 (orphan stays in place)", blobs.putCount())
	}
	if docs.count() != 0 {
		t.Error("failed metadata write must not leave a record")
	}
}

func TestBuildStoragePath_Shape(t *testing.T) {
	projectID := primitive.NewObjectID()
	p := buildStoragePath(projectID, "informe final.pdf")
	if !strings.HasPrefix(p, "projects/"+projectID.Hex()+"/") {
		t.Errorf("path %q not under the project prefix", p)
	}
	if !strings.HasSuffix(p, "-informe final.pdf") {
		t.Errorf("path %q should end with the sanitized name", p)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"informe.pdf", "informe.pdf"},
		{"../../etc/passwd", "passwd"},
		{"c:\\docs\\plan.docx", "plan.docx"},
		{"linea\x00rota.txt", "linearota.txt"},
		{"..", "archivo"},
		{"   ", "archivo"},
	}
	for _, tc := range cases {
		if got := sanitizeFileName(tc.in); got != tc.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
