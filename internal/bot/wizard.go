package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tattty/internal/design"
	"tattty/internal/session"
	"tattty/internal/telegram"
)

const callbackPrefix = "tq"

// showStep renders the current question, editing the keyboard message in
// place when possible.
func (h *Handler) showStep(ctx context.Context, sess *session.Session, edit bool) error {
	step, ok := h.steps.Step(sess.Step)
	if !ok {
		return fmt.Errorf("step %d out of range", sess.Step)
	}

	text := stepText(h.steps, sess.Step, sess.Answers)
	kb := stepKeyboard(sess.UserID, sess.Step, step, sess.Answers.Get(step.Field))

	if edit && sess.MessageID != 0 {
		if err := h.tg.EditTextWithKeyboard(sess.ChatID, sess.MessageID, text, kb); err == nil {
			return h.save(ctx, sess)
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(sess.ChatID, text, kb)
	if err != nil {
		return err
	}
	sess.MessageID = msgID
	return h.save(ctx, sess)
}

func (h *Handler) save(ctx context.Context, sess *session.Session) error {
	if err := h.sessions.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (h *Handler) handleCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}

	ownerID, action, args, ok := parseCallback(q.Data)
	if !ok {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu is not for you.", true)
		return nil
	}

	chatID := q.Message.Chat.ID
	sess, err := h.loadSession(ctx, chatID, ownerID)
	if err != nil {
		return err
	}
	if sess.Generating {
		_ = h.tg.AnswerCallback(q.ID, "⏳ Still working on your design…", false)
		return nil
	}

	switch action {
	case "pick":
		return h.pickOption(ctx, q, &sess, args)
	case "back":
		_ = h.tg.AnswerCallback(q.ID, "", false)
		sess.MessageID = q.Message.MessageID
		return h.goBack(ctx, &sess, true)
	case "cancel":
		_ = h.tg.AnswerCallback(q.ID, "Cancelled", false)
		if err := h.sessions.Delete(ctx, chatID, ownerID); err != nil {
			return err
		}
		return h.tg.SendText(chatID, "🛑 Cancelled. Send /start to design a new tattoo.")
	case "regen":
		if !sess.Answers.Complete() {
			_ = h.tg.AnswerCallback(q.ID, "Your answers expired. Send /start.", true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "Generating a new variation…", false)
		return h.generate(ctx, &sess)
	case "restart":
		_ = h.tg.AnswerCallback(q.ID, "", false)
		sess.Username = q.From.UserName
		sess.Reset()
		return h.showStep(ctx, &sess, false)
	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return nil
	}
}

func (h *Handler) pickOption(ctx context.Context, q *telegram.CallbackQuery, sess *session.Session, args []string) error {
	if len(args) != 2 {
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return nil
	}
	stepIdx, err1 := strconv.Atoi(args[0])
	optIdx, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return nil
	}
	if stepIdx != sess.Step {
		_ = h.tg.AnswerCallback(q.ID, "That question is no longer active.", false)
		return nil
	}

	step, ok := h.steps.Step(stepIdx)
	if !ok {
		return nil
	}
	value, ok := step.Option(optIdx)
	if !ok {
		_ = h.tg.AnswerCallback(q.ID, "Unknown option.", false)
		return nil
	}

	_ = h.tg.AnswerCallback(q.ID, value, false)
	h.logger.Debug("option picked",
		zap.Int64("user_id", sess.UserID),
		zap.String("field", step.Field),
		zap.String("value", value))

	sess.Answers.Set(step.Field, value)
	sess.Step++
	if sess.Step < len(h.steps.Steps) {
		sess.MessageID = q.Message.MessageID
		return h.showStep(ctx, sess, true)
	}
	sess.MessageID = 0
	return h.generate(ctx, sess)
}

func stepText(q design.Questionnaire, idx int, answers design.UserStory) string {
	step, _ := q.Step(idx)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Step %d/%d · %s\n\n", idx+1, len(q.Steps), step.Title))
	b.WriteString(step.Question)
	b.WriteString("\n")

	current := answers.Get(step.Field)
	switch {
	case current != "" && step.Kind == design.StepChoice:
		b.WriteString("\nSelected: " + current + "\n")
	case current != "":
		b.WriteString("\nYour answer: " + truncateLine(current, 120) + "\nSend a new message to change it.\n")
	case step.Kind == design.StepText && step.Placeholder != "":
		b.WriteString("\n💡 " + step.Placeholder + "\n")
	}
	if step.Kind == design.StepChoice {
		b.WriteString("\nPick an option or type your own.")
	}

	return strings.TrimSpace(b.String())
}

func stepKeyboard(ownerID int64, idx int, step design.Step, current string) telegram.Keyboard {
	var rows [][]telegram.InlineButton

	if step.Kind == design.StepChoice {
		var row []telegram.InlineButton
		for i, opt := range step.Options {
			label := opt
			if strings.EqualFold(opt, current) {
				label = "✅ " + label
			}
			row = append(row, telegram.NewButton(label, cb(ownerID, "pick", strconv.Itoa(idx), strconv.Itoa(i))))
			if len(row) == 2 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	var nav []telegram.InlineButton
	if idx > 0 {
		nav = append(nav, telegram.NewButton("⬅ Back", cb(ownerID, "back")))
	}
	nav = append(nav, telegram.NewButton("✖ Cancel", cb(ownerID, "cancel")))
	rows = append(rows, nav)

	return telegram.NewKeyboard(rows...)
}

func resultKeyboard(ownerID int64) telegram.Keyboard {
	return telegram.NewKeyboard(
		[]telegram.InlineButton{
			telegram.NewButton("🔄 Regenerate", cb(ownerID, "regen")),
			telegram.NewButton("🆕 Start over", cb(ownerID, "restart")),
		},
	)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, strings.Join(parts, ":"))
}

func parseCallback(data string) (ownerID int64, action string, args []string, ok bool) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 3 || parts[0] != callbackPrefix {
		return 0, "", nil, false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", nil, false
	}
	return ownerID, parts[2], parts[3:], true
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
