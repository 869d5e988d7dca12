// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"

	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// BlobPinger checks that the object store answers. Optional; a nil pinger
// skips the check.
type BlobPinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Client *mongo.Client
	Blobs  BlobPinger
	Log    *zap.Logger
}

func NewHandler(client *mongo.Client, blobs BlobPinger, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Blobs: blobs, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Blobs    string `json:"blobs,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health. The database is load-bearing: a failed ping
// returns 503. The blob store check is informational only.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "connected"}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Error = err.Error()
		httpjson.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Blobs != nil {
		resp.Blobs = "connected"
		if err := h.Blobs.Ping(ctx); err != nil {
			h.Log.Warn("health check: blob store unreachable", zap.Error(err))
			resp.Blobs = "disconnected"
		}
	}

	httpjson.Write(w, http.StatusOK, resp)
}
