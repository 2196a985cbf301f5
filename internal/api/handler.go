package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tattty/internal/design"
	"tattty/internal/generator"
	"tattty/internal/overlay"
)

const (
	msgPromptFailed = "Failed to create design prompt"
	msgImageFailed  = "Failed to generate tattoo artwork"
)

type Generator interface {
	Generate(ctx context.Context, story design.UserStory) (generator.Result, error)
}

type Handler struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

func NewHandler(gen Generator, timeout time.Duration, log *zap.Logger) *Handler {
	return &Handler{gen: gen, timeout: timeout, log: log}
}

type generateRequest struct {
	UserAnswers *design.UserStory `json:"userAnswers"`
}

// GenerateTattoo handles POST /api/generate-tattoo.
func (h *Handler) GenerateTattoo(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.UserAnswers == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User answers are required"})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.gen.Generate(ctx, *req.UserAnswers)
	if err != nil {
		status, body := errorResponse(err)
		h.log.Error("Failed to generate tattoo",
			zap.String("request_id", GetRequestID(c.Request.Context())),
			zap.Int("status", status),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func errorResponse(err error) (int, gin.H) {
	var verr *generator.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, gin.H{
			"error":   "Incomplete user answers",
			"details": verr.Error(),
		}
	}

	var uerr *generator.UpstreamError
	if errors.As(err, &uerr) {
		msg := msgImageFailed
		if uerr.Stage == generator.StagePrompt {
			msg = msgPromptFailed
		}
		return http.StatusBadGateway, gin.H{
			"success": false,
			"error":   msg,
			"details": uerr.Error(),
		}
	}

	return http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
		"details": err.Error(),
	}
}

// Questionnaire handles GET /api/questionnaire.
func (h *Handler) Questionnaire(c *gin.Context) {
	c.JSON(http.StatusOK, design.Catalog())
}

// ARPreview handles POST /api/ar-preview: composites a design onto a body
// photo and returns the result as a PNG attachment.
func (h *Handler) ARPreview(c *gin.Context) {
	photoFile, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
		return
	}
	photo, err := decodeUpload(photoFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo: " + err.Error()})
		return
	}

	art, err := h.designFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placement, err := placementFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := overlay.Composite(photo, art, placement)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := overlay.EncodePNG(&buf, out); err != nil {
		h.log.Error("Failed to encode preview", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode preview"})
		return
	}

	name := fmt.Sprintf("tattoo-ar-preview-%s.png", uuid.NewString())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) designFromForm(c *gin.Context) (image.Image, error) {
	if fh, err := c.FormFile("design"); err == nil {
		img, err := decodeUpload(fh)
		if err != nil {
			return nil, fmt.Errorf("invalid design: %w", err)
		}
		return img, nil
	}

	dataURL := strings.TrimSpace(c.PostForm("designUrl"))
	if dataURL == "" {
		return nil, errors.New("design or designUrl is required")
	}
	img, err := overlay.DecodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("invalid designUrl: %w", err)
	}
	return img, nil
}

func placementFromForm(c *gin.Context) (overlay.Placement, error) {
	p := overlay.DefaultPlacement()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &p.X},
		{"y", &p.Y},
		{"size", &p.Size},
		{"rotation", &p.Rotation},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(c.PostForm(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return overlay.Placement{}, fmt.Errorf("invalid %s: %q", f.name, raw)
		}
		*f.dst = v
	}
	return p.Normalize(), nil
}

func decodeUpload(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := overlay.Decode(f)
	return img, err
}
