package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tattty/internal/design"
	"tattty/internal/generator"
	"tattty/internal/session"
)

func (h *Handler) generate(ctx context.Context, sess *session.Session) error {
	chatID := sess.ChatID
	genID := uuid.NewString()

	sess.Generating = true
	sess.GenerationID = genID
	if err := h.save(ctx, sess); err != nil {
		return err
	}

	var delivered *delivery
	// The session must be released even when ctx has expired.
	saveCtx := context.WithoutCancel(ctx)
	defer func() {
		h.finishGeneration(saveCtx, chatID, sess.UserID, genID, delivered)
	}()

	h.tg.SendUploadingPhoto(chatID)
	_ = h.tg.SendText(chatID, "🎨 Designing your tattoo, this can take up to a minute...")

	res, err := h.gen.Generate(ctx, sess.Answers)
	if err != nil {
		h.logger.Error("tattoo generation failed",
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", sess.UserID),
			zap.Error(err))
		_, sendErr := h.tg.SendTextWithKeyboard(chatID, failureText(err), resultKeyboard(sess.UserID))
		return sendErr
	}

	kb := resultKeyboard(sess.UserID)
	fileID, err := h.tg.SendPhotoDataURL(chatID, res.ImageURL, resultCaption(res), &kb)
	if err != nil {
		return err
	}

	delivered = &delivery{fileID: fileID, prompt: res.Prompt, seed: res.Seed}
	return nil
}

type delivery struct {
	fileID string
	prompt string
	seed   int64
}

// finishGeneration releases the session that started generation genID. The
// stored copy is reloaded so that a /cancel or a new run started meanwhile
// is not overwritten.
func (h *Handler) finishGeneration(ctx context.Context, chatID, userID int64, genID string, d *delivery) {
	cur, err := h.sessions.Get(ctx, chatID, userID)
	if errors.Is(err, session.ErrNotFound) {
		h.logger.Debug("session gone before generation finished", zap.Int64("user_id", userID))
		return
	}
	if err != nil {
		h.logger.Error("session load failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if !cur.Generating || cur.GenerationID != genID {
		h.logger.Debug("session moved on during generation", zap.Int64("user_id", userID))
		return
	}

	cur.Generating = false
	cur.GenerationID = ""
	if d != nil {
		cur.DesignFileID = d.fileID
		cur.LastPrompt = d.prompt
		cur.LastSeed = d.seed
	}
	if err := h.save(ctx, &cur); err != nil {
		h.logger.Error("session save failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func failureText(err error) string {
	var verr *generator.ValidationError
	if errors.As(err, &verr) {
		return "⚠️ Some answers are missing: " + strings.Join(verr.Missing, ", ") + ". Tap Start over to answer again."
	}

	var uerr *generator.UpstreamError
	if errors.As(err, &uerr) {
		if uerr.Stage == generator.StagePrompt {
			return "❌ Failed to create design prompt. Tap Regenerate to try again."
		}
		return "❌ Failed to generate tattoo artwork. Tap Regenerate to try again."
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "⌛ That took too long. Tap Regenerate to try again."
	}
	return "❌ Something went wrong. Tap Regenerate to try again."
}

func resultCaption(res generator.Result) string {
	var b strings.Builder
	b.WriteString("✅ Your tattoo design is ready\n\n")
	b.WriteString(fmt.Sprintf("Style: %s\n", res.Metadata.Style))
	b.WriteString(fmt.Sprintf("Placement: %s (%s)\n", res.Metadata.Placement, res.AspectRatio))
	b.WriteString(fmt.Sprintf("Size: %s\n", res.Metadata.Size))
	b.WriteString(fmt.Sprintf("Color: %s\n", res.Metadata.Color))
	b.WriteString(fmt.Sprintf("Seed: %d\n", res.Seed))
	if res.Metadata.FinishReason != "" && res.Metadata.FinishReason != design.FinishSuccess {
		b.WriteString(fmt.Sprintf("Finish: %s\n", res.Metadata.FinishReason))
	}
	b.WriteString("\n📷 Send a photo of the body part to see an AR preview.")
	return b.String()
}
