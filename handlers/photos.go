package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/internal/session"
	"github.com/revlinehq/revline-api/internal/upload"
	"github.com/revlinehq/revline-api/pkg/logger"
)

// Presigner produces time-limited download URLs for stored thumbnails.
type Presigner interface {
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PhotoHandler drives the photo upload flow and the gallery listing.
type PhotoHandler struct {
	uploads *upload.Service
	store   *session.Store
	thumbs  Presigner
}

func NewPhotoHandler(uploads *upload.Service, store *session.Store, thumbs Presigner) *PhotoHandler {
	return &PhotoHandler{uploads: uploads, store: store, thumbs: thumbs}
}

// Register routes under the given group
func (h *PhotoHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/photos", h.Upload)
	rg.GET("/cars/:carID/photos", h.List)
}

// Upload accepts a multipart batch: fields car_id, make, model, year,
// description plus one or more "photos" file parts. Validation failures never
// reach storage; a fatal storage or metadata failure leaves the client free
// to retry the same selection.
func (h *PhotoHandler) Upload(c *gin.Context) {
	snap := h.store.Snapshot()
	var userID string
	if snap.Identity != nil {
		userID = snap.Identity.ID
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form", "details": err.Error()})
		return
	}
	year := 0
	if y := c.PostForm("year"); y != "" {
		if year, err = strconv.Atoi(y); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
	}
	req := upload.BatchRequest{
		CarID:       c.PostForm("car_id"),
		Make:        c.PostForm("make"),
		Model:       c.PostForm("model"),
		Year:        year,
		Description: c.PostForm("description"),
	}
	for _, fh := range form.File["photos"] {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "details": err.Error()})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "details": err.Error()})
			return
		}
		req.Files = append(req.Files, upload.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	n, err := h.uploads.UploadBatch(c.Request.Context(), userID, req)
	switch {
	case errors.Is(err, upload.ErrNoFiles):
		c.JSON(http.StatusBadRequest, gin.H{"error": "select at least one photo"})
	case errors.Is(err, upload.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in to upload photos"})
	case err != nil:
		msg := err.Error()
		if msg == "" {
			msg = "upload failed"
		}
		logger.Errorf("photo upload failed after %d files: %v", n, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msg, "uploaded": n})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "uploaded": n})
	}
}

type photoView struct {
	models.Photo
	ThumbURL string `json:"thumbUrl,omitempty"`
}

// List returns the photo rows for a car with presigned thumbnail URLs.
// Presign failures degrade to rows without a URL; the thumbnail bucket is
// best-effort.
func (h *PhotoHandler) List(c *gin.Context) {
	photos, err := h.uploads.ListByCar(c.Request.Context(), c.Param("carID"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list photos", "details": err.Error()})
		return
	}
	out := make([]photoView, 0, len(photos))
	for _, p := range photos {
		v := photoView{Photo: p}
		if h.thumbs != nil {
			u, err := h.thumbs.PresignedURL(c.Request.Context(), p.ThumbKey, 15*time.Minute)
			if err != nil {
				logger.Warnf("presign thumb %s: %v", p.ThumbKey, err)
			} else {
				v.ThumbURL = u
			}
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"photos": out})
}
