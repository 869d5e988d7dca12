// internal/app/features/documents/handler.go
package documents

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/limits"
	"github.com/msalazarj/primebug/internal/app/system/sse"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/app/upload"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxUploadMemory caps how much of a multipart body is held in memory
// before spilling to disk.
const maxUploadMemory = 10 << 20

const keepAliveInterval = 15 * time.Second

// DocumentStore is the slice of the document store this feature needs.
type DocumentStore interface {
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.DocumentRecord, error)
}

// JobRegistry tracks running uploads so clients can follow progress over SSE.
type JobRegistry interface {
	Start(events <-chan upload.Event) string
	Subscribe(ctx context.Context, id string) (<-chan upload.Event, bool)
}

type Handler struct {
	Docs     DocumentStore
	Pipeline *upload.Pipeline
	Jobs     JobRegistry
	Log      *zap.Logger
}

func NewHandler(docs DocumentStore, pipeline *upload.Pipeline, jobs JobRegistry, logger *zap.Logger) *Handler {
	return &Handler{Docs: docs, Pipeline: pipeline, Jobs: jobs, Log: logger}
}

// ServeList handles GET /documents?project=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("project"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Proyecto inválido.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	docs, err := h.Docs.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("document list failed", zap.String("project_id", projectID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"documents": docs})
}

// HandleUpload handles POST /documents/upload. The multipart body is
// spooled to a temp file so the transfer can outlive the request; the
// response carries a job id for the SSE progress stream.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}
	uid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Sesión inválida.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	projectID, err := primitive.ObjectIDFromHex(r.FormValue("project_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Proyecto inválido.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Selecciona un archivo para subir.")
		return
	}
	defer file.Close()

	// The server discards multipart temp files once the handler returns,
	// so the upload gets its own copy.
	tmp, err := os.CreateTemp("", "primebug-upload-*")
	if err != nil {
		h.Log.Error("upload spool failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo procesar el archivo. Inténtalo de nuevo.")
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		h.Log.Error("upload spool failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo procesar el archivo. Inténtalo de nuevo.")
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		h.Log.Error("upload spool failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo procesar el archivo. Inténtalo de nuevo.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	events := h.Pipeline.Upload(ctx, upload.Request{
		File:        tmp,
		Size:        header.Size,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		ProjectID:   projectID,
		Version:     r.FormValue("version"),
		Category:    r.FormValue("category"),
		UploaderID:  uid,
		Uploader:    user.Name,
	})

	relay := make(chan upload.Event, 8)
	go func() {
		defer cancel()
		defer close(relay)
		defer os.Remove(tmp.Name())
		defer tmp.Close()
		for e := range events {
			relay <- e
		}
	}()

	jobID := h.Jobs.Start(relay)
	httpjson.Write(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

type jobEvent struct {
	Phase   string                 `json:"phase"`
	Percent int                    `json:"percent"`
	Reason  string                 `json:"reason,omitempty"`
	Message string                 `json:"message,omitempty"`
	Record  *models.DocumentRecord `json:"record,omitempty"`
}

// ServeEvents handles GET /documents/upload/{id}/events: an SSE stream of
// the job's phase events, replayed from the start for late subscribers.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	events, ok := h.Jobs.Subscribe(r.Context(), jobID)
	if !ok {
		httpjson.Error(w, http.StatusNotFound, "Carga no encontrada.")
		return
	}

	stream, err := sse.NewWriter(w)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "El servicio no está disponible.")
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := stream.Comment("keep-alive"); err != nil {
				return
			}
		case e, open := <-events:
			if !open {
				return
			}
			out := jobEvent{
				Phase:   string(e.Phase),
				Percent: e.Percent,
				Reason:  string(e.Reason),
				Record:  e.Record,
			}
			if e.Phase == upload.PhaseFailed {
				out.Message = failureMessage(e.Reason)
			}
			if err := stream.Event("upload", out); err != nil {
				return
			}
		}
	}
}

func failureMessage(reason upload.Reason) string {
	switch reason {
	case upload.ReasonValidation:
		return "Los datos del archivo no son válidos."
	default:
		return "No se pudo subir el archivo. Inténtalo de nuevo."
	}
}
