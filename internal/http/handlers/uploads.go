package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/pethub/internal/blob"
	"github.com/gin-gonic/gin"
)

type UploadsHandler struct {
	objects blob.Opener
	log     *slog.Logger
	timeout time.Duration
}

func NewUploadsHandler(objects blob.Opener, timeout time.Duration, log *slog.Logger) *UploadsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UploadsHandler{objects: objects, log: log, timeout: timeout}
}

// Serve streams a stored image. Keys are never reused, so responses are
// cacheable forever.
func (h *UploadsHandler) Serve(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("key"), "/")
	if !blob.ValidKey(key) {
		RespondNotFound(ctx, "Object not found")
		return
	}

	cctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	obj, err := h.objects.Open(cctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			RespondNotFound(ctx, "Object not found")
			return
		}

		respondDownstreamErr(ctx, h.log, "Could not read object", err)
		return
	}
	defer obj.Body.Close()

	ctx.Header("Cache-Control", "public, max-age=31536000, immutable")
	ctx.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}
