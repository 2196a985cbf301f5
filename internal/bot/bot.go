package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tattty/internal/design"
	"tattty/internal/generator"
	"tattty/internal/session"
	"tattty/internal/telegram"
)

// Messenger is the subset of the Telegram client the bot talks through.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.Keyboard) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.Keyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendTyping(chatID int64)
	SendUploadingPhoto(chatID int64)
	SendPhotoDataURL(chatID int64, dataURL, caption string, kb *telegram.Keyboard) (string, error)
	SendPhotoBytes(chatID int64, name string, data []byte, caption string, kb *telegram.Keyboard) (string, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

type Generator interface {
	Generate(ctx context.Context, story design.UserStory) (generator.Result, error)
}

type Options struct {
	Messenger Messenger
	Generator Generator
	Sessions  session.Store
	Logger    *zap.Logger
}

type Handler struct {
	tg       Messenger
	gen      Generator
	sessions session.Store
	steps    design.Questionnaire
	logger   *zap.Logger
}

func New(opts Options) (*Handler, error) {
	if opts.Messenger == nil {
		return nil, errors.New("messenger is nil")
	}
	if opts.Generator == nil {
		return nil, errors.New("generator is nil")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		tg:       opts.Messenger,
		gen:      opts.Generator,
		sessions: opts.Sessions,
		steps:    design.Catalog(),
		logger:   logger,
	}, nil
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, username, msg.Command())
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, msg)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, msg.Text)
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, username, command string) error {
	switch command {
	case "start":
		sess, err := h.loadSession(ctx, chatID, userID)
		if err != nil {
			return err
		}
		if sess.Generating {
			return h.tg.SendText(chatID, busyText)
		}
		sess.Username = username
		sess.Reset()
		if err := h.tg.SendText(chatID, welcomeText); err != nil {
			return err
		}
		return h.showStep(ctx, &sess, false)
	case "cancel":
		if err := h.sessions.Delete(ctx, chatID, userID); err != nil {
			return err
		}
		return h.tg.SendText(chatID, "🛑 Cancelled. Send /start to design a new tattoo.")
	case "back":
		sess, ok, err := h.activeSession(ctx, chatID, userID)
		if err != nil || !ok {
			return err
		}
		if sess.Generating {
			return h.tg.SendText(chatID, busyText)
		}
		return h.goBack(ctx, &sess, false)
	case "help":
		return h.tg.SendText(chatID, helpText)
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID, userID int64, text string) error {
	sess, ok, err := h.activeSession(ctx, chatID, userID)
	if err != nil || !ok {
		return err
	}
	if sess.Generating {
		return h.tg.SendText(chatID, busyText)
	}

	step, ok := h.steps.Step(sess.Step)
	if !ok {
		return h.tg.SendText(chatID, "Your answers are complete. Tap Regenerate, send a body photo for a preview, or /start over.")
	}

	answer := strings.TrimSpace(text)
	if answer == "" {
		return h.tg.SendText(chatID, "✏️ Please write a few words to answer.")
	}
	sess.Answers.Set(step.Field, answer)
	return h.advance(ctx, &sess)
}

// advance moves to the next step, or generates once every answer is in.
func (h *Handler) advance(ctx context.Context, sess *session.Session) error {
	sess.Step++
	sess.MessageID = 0
	if sess.Step < len(h.steps.Steps) {
		return h.showStep(ctx, sess, false)
	}
	return h.generate(ctx, sess)
}

func (h *Handler) goBack(ctx context.Context, sess *session.Session, edit bool) error {
	if sess.Step > len(h.steps.Steps)-1 {
		sess.Step = len(h.steps.Steps) - 1
	} else if sess.Step > 0 {
		sess.Step--
	}
	return h.showStep(ctx, sess, edit)
}

// activeSession returns ok=false, after telling the user, when there is no
// questionnaire in progress.
func (h *Handler) activeSession(ctx context.Context, chatID, userID int64) (session.Session, bool, error) {
	sess, err := h.sessions.Get(ctx, chatID, userID)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{}, false, h.tg.SendText(chatID, "👋 Send /start to design your tattoo.")
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	return sess, true, nil
}

func (h *Handler) loadSession(ctx context.Context, chatID, userID int64) (session.Session, error) {
	sess, err := h.sessions.Get(ctx, chatID, userID)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{ChatID: chatID, UserID: userID}, nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

const busyText = "⏳ Still working on your design, hang on. Send /cancel to drop it."

const welcomeText = "🖋 Tattty\n\n" +
	"Tell me your story in eight short steps and I will design a tattoo that is truly yours.\n\n" +
	"Commands:\n" +
	"/start - Start a new design\n" +
	"/back - Previous question\n" +
	"/cancel - Stop and forget your answers\n" +
	"/help - Help"

const helpText = "🖋 Help\n\n" +
	"Answer the four story questions in your own words, then pick placement, size, color and style.\n" +
	"When the design is ready, tap Regenerate for a new variation.\n" +
	"Send a photo of the body part to see an AR preview. Adjust it with a caption like:\n" +
	"x=40 y=60 size=70 rot=15"
