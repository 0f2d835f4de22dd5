package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/pethub/internal/blob"
	"github.com/geocoder89/pethub/internal/config"
	"github.com/geocoder89/pethub/internal/domain/pet"
	"github.com/gin-gonic/gin"
)

const (
	// each write bumps the generation, so a listing cached under an older
	// generation is never served again
	listingGenerationKey = "pets:list:active:gen"
	listingKeyPrefix     = "pets:list:active:v1:"
)

type PetStore interface {
	Create(ctx context.Context, p pet.Pet) (pet.Pet, error)
	GetByID(ctx context.Context, id int64) (pet.Pet, error)
	Update(ctx context.Context, p pet.Pet) (pet.Pet, error)
	ListByStatus(ctx context.Context, status pet.Status) ([]pet.Pet, error)
}

type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Incr(ctx context.Context, key string) (int64, error)
}

type PetsMetrics interface {
	CacheResult(result string)
	AddUploadedBytes(n int64)
}

type PetsHandler struct {
	pets    PetStore
	blobs   blob.Store
	cache   ListCache
	metrics PetsMetrics
	log     *slog.Logger

	prefix      string
	timeout     time.Duration
	blobTimeout time.Duration
}

// NewPetsHandler wires the pet endpoints. listCache may be nil, in which
// case every listing goes to the store.
func NewPetsHandler(pets PetStore, blobs blob.Store, listCache ListCache, cfg config.Config, log *slog.Logger) *PetsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &PetsHandler{
		pets:        pets,
		blobs:       blobs,
		cache:       listCache,
		log:         log,
		prefix:      cfg.BlobPrefix,
		timeout:     cfg.DownstreamTimeout,
		blobTimeout: cfg.BlobTimeout,
	}
}

func (h *PetsHandler) WithMetrics(m PetsMetrics) *PetsHandler {
	h.metrics = m
	return h
}

func (h *PetsHandler) AddPet(ctx *gin.Context) {
	file, err := ctx.FormFile("image")
	if err != nil {
		h.respondMissingImage(ctx, err)
		return
	}

	var form pet.PetForm
	if !BindForm(ctx, &form) {
		return
	}

	imageURL, err := h.storeImage(ctx, file)
	if err != nil {
		respondDownstreamErr(ctx, h.log, "Could not upload image", err)
		return
	}

	cctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	created, err := h.pets.Create(cctx, pet.NewFromForm(form, imageURL))
	if err != nil {
		respondDownstreamErr(ctx, h.log, "Could not create pet", err)
		return
	}

	h.invalidateListing(ctx)

	ctx.JSON(http.StatusCreated, created)
}

func (h *PetsHandler) ListPets(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	// read before the store so a concurrent write invalidates what we load
	gen, cacheable := h.listingGeneration(cctx)
	if cacheable {
		if body, ok := h.cachedListing(cctx, gen); ok {
			RespondRawJSONWithETag(ctx, http.StatusOK, body)
			return
		}
	}

	pets, err := h.pets.ListByStatus(cctx, pet.StatusActive)
	if err != nil {
		respondDownstreamErr(ctx, h.log, "Could not list pets", err)
		return
	}

	if pets == nil {
		pets = []pet.Pet{}
	}

	body, err := json.Marshal(pets)
	if err != nil {
		RespondInternalErr(ctx, "Could not list pets", err)
		return
	}

	if cacheable {
		h.storeListing(cctx, gen, body)
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}

func (h *PetsHandler) UpdatePet(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid pet id", gin.H{"id": ctx.Param("id")})
		return
	}

	cctx, cancel := withTimeout(ctx, h.timeout)
	existing, err := h.pets.GetByID(cctx, id)
	cancel()

	if err != nil {
		if errors.Is(err, pet.ErrNotFound) {
			RespondNotFound(ctx, "Pet not found")
			return
		}

		respondDownstreamErr(ctx, h.log, "Could not update pet", err)
		return
	}

	var form pet.PetForm
	if !BindForm(ctx, &form) {
		return
	}

	newImageURL := ""

	// the image is optional here, anything but "absent" is still an error
	file, err := ctx.FormFile("image")
	switch {
	case err == nil:
		newImageURL, err = h.storeImage(ctx, file)
		if err != nil {
			respondDownstreamErr(ctx, h.log, "Could not upload image", err)
			return
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.respondMissingImage(ctx, err)
		return
	}

	cctx, cancel = withTimeout(ctx, h.timeout)
	defer cancel()

	updated, err := h.pets.Update(cctx, existing.ApplyForm(form, newImageURL))
	if err != nil {
		if errors.Is(err, pet.ErrNotFound) {
			RespondNotFound(ctx, "Pet not found")
			return
		}

		respondDownstreamErr(ctx, h.log, "Could not update pet", err)
		return
	}

	h.invalidateListing(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Pet updated successfully",
		"imageUrl": updated.ImageURL,
	})
}

func (h *PetsHandler) storeImage(ctx *gin.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = blob.DefaultContentType
	}

	cctx, cancel := withTimeout(ctx, h.blobTimeout)
	defer cancel()

	url, err := h.blobs.Put(cctx, blob.NewObjectKey(h.prefix, file.Filename), contentType, src)
	if err != nil {
		return "", err
	}

	if h.metrics != nil {
		h.metrics.AddUploadedBytes(file.Size)
	}

	return url, nil
}

func (h *PetsHandler) respondMissingImage(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds size limit", gin.H{"limit": tooLarge.Limit})
		return
	}

	RespondBadRequest(ctx, "No image uploaded", nil)
}

func listingKey(gen int64) string {
	return listingKeyPrefix + strconv.FormatInt(gen, 10)
}

// listingGeneration reports false when the cache is absent or unusable.
func (h *PetsHandler) listingGeneration(ctx context.Context) (int64, bool) {
	if h.cache == nil {
		return 0, false
	}

	raw, ok, err := h.cache.Get(ctx, listingGenerationKey)
	if err != nil {
		h.recordCache("error")
		h.log.WarnContext(ctx, "listing generation read failed", "err", err, "key", listingGenerationKey)
		return 0, false
	}
	if !ok {
		return 0, true
	}

	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		h.recordCache("error")
		h.log.WarnContext(ctx, "listing generation is not a number", "value", string(raw), "key", listingGenerationKey)
		return 0, false
	}

	return gen, true
}

func (h *PetsHandler) cachedListing(ctx context.Context, gen int64) ([]byte, bool) {
	key := listingKey(gen)

	body, ok, err := h.cache.Get(ctx, key)
	switch {
	case err != nil:
		h.recordCache("error")
		h.log.WarnContext(ctx, "listing cache get failed", "err", err, "key", key)
		return nil, false
	case !ok:
		h.recordCache("miss")
		return nil, false
	}

	h.recordCache("hit")
	return body, true
}

// storeListing caches body only if no write landed since gen was read.
func (h *PetsHandler) storeListing(ctx context.Context, gen int64, body []byte) {
	cur, ok := h.listingGeneration(ctx)
	if !ok || cur != gen {
		return
	}

	key := listingKey(gen)
	if err := h.cache.Set(ctx, key, body); err != nil {
		h.log.WarnContext(ctx, "listing cache set failed", "err", err, "key", key)
	}
}

func (h *PetsHandler) invalidateListing(ctx *gin.Context) {
	if h.cache == nil {
		return
	}

	cctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	if _, err := h.cache.Incr(cctx, listingGenerationKey); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "listing cache invalidation failed", "err", err, "key", listingGenerationKey)
	}
}

func (h *PetsHandler) recordCache(result string) {
	if h.metrics != nil {
		h.metrics.CacheResult(result)
	}
}
