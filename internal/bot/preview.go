package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tattty/internal/overlay"
	"tattty/internal/session"
	"tattty/internal/telegram"
)

// handlePhoto composites the user's last design onto the photo they sent.
func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *telegram.Message) error {
	sess, err := h.sessions.Get(ctx, chatID, userID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("load session: %w", err)
	}
	if errors.Is(err, session.ErrNotFound) || sess.DesignFileID == "" {
		return h.tg.SendText(chatID, "🎨 Design your tattoo first with /start, then send a body photo to preview it.")
	}

	placement, err := ParsePlacement(msg.Caption)
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error()+"\nExample caption: x=40 y=60 size=70 rot=15")
	}

	h.tg.SendUploadingPhoto(chatID)

	photoID := msg.Photo[len(msg.Photo)-1].FileID
	var photo, art image.Image

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		img, err := h.downloadImage(egCtx, photoID)
		photo = img
		return err
	})
	eg.Go(func() error {
		img, err := h.downloadImage(egCtx, sess.DesignFileID)
		art = img
		return err
	})
	if err := eg.Wait(); err != nil {
		h.logger.Error("preview download failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return h.tg.SendText(chatID, "❌ Could not load the images. Please send the photo again.")
	}

	out, err := overlay.Composite(photo, art, placement)
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}

	var buf bytes.Buffer
	if err := overlay.EncodePNG(&buf, out); err != nil {
		return err
	}

	name := fmt.Sprintf("tattoo-ar-preview-%s.png", uuid.NewString())
	_, err = h.tg.SendPhotoBytes(chatID, name, buf.Bytes(), previewCaption(placement), nil)
	return err
}

func (h *Handler) downloadImage(ctx context.Context, fileID string) (image.Image, error) {
	data, _, err := h.tg.DownloadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	img, _, err := overlay.Decode(bytes.NewReader(data))
	return img, err
}

func previewCaption(p overlay.Placement) string {
	return fmt.Sprintf("👀 AR preview\nx=%g y=%g size=%g rot=%g\n\nSend the photo again with a caption like these values to adjust.",
		p.X, p.Y, p.Size, p.Rotation)
}
