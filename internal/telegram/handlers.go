package telegram

import (
	"context"
	"io"
	"time"

	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/ledger"
	"github.com/Dharshan209/fintrack-bot/internal/logger"
	"github.com/Dharshan209/fintrack-bot/internal/ocr"
)

// maxPhotoBytes caps the size of receipt images downloaded for recognition.
const maxPhotoBytes = 10 << 20

// Handlers binds the conversation machine and the OCR backend to bot routes.
type Handlers struct {
	machine    *ledger.Machine
	recognizer ocr.Recognizer
}

// NewHandlers wires the route handlers.
func NewHandlers(machine *ledger.Machine, recognizer ocr.Recognizer) *Handlers {
	if recognizer == nil {
		recognizer = ocr.Disabled{}
	}
	return &Handlers{machine: machine, recognizer: recognizer}
}

// OnStart handles /start: greet and show the main menu.
func (h *Handlers) OnStart(c tele.Context) error {
	return sendReply(c, ledger.WelcomeReply())
}

// OnMenu handles /menu: show the main menu without the greeting.
func (h *Handlers) OnMenu(c tele.Context) error {
	return sendReply(c, ledger.MainMenuReply())
}

// OnCallback dispatches every inline button press. The callback is always
// acknowledged so Telegram clears the loading spinner even for stale buttons.
func (h *Handlers) OnCallback(c tele.Context) error {
	_ = c.Respond()

	user := c.Sender()
	if user == nil {
		return nil
	}

	ctx := logger.WithHandler(ContextOf(c), "callback")
	key, payload := ParseCallbackData(c.Callback())

	cmd, ok := ledger.ParseCommand(key, payload)
	if !ok {
		logger.Warn(ctx, "tg", "callback.unknown",
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
		)
		return editReply(c, ledger.MainMenuReply())
	}

	start := time.Now()
	reply := h.machine.HandleCommand(ctx, user.ID, cmd)
	logger.Debug(ctx, "tg", "callback.handled",
		slog.String("cb_key", logger.SanitizeLimit(key, 128)),
		slog.Duration("duration", logger.Took(start)),
	)
	return editReply(c, reply)
}

// OnText routes free text into the machine. Text that the conversation does
// not expect is ignored without a reply.
func (h *Handlers) OnText(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	ctx := logger.WithHandler(ContextOf(c), "text")
	reply, handled := h.machine.HandleText(ctx, user.ID, c.Text())
	if !handled {
		return nil
	}
	return sendReply(c, reply)
}

// OnPhoto downloads the photo and runs recognition once, then hands the
// outcome to the machine. Download and OCR failures degrade to "no readable
// text"; the user recovers by retrying or switching to manual entry.
func (h *Handlers) OnPhoto(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	ctx := logger.WithHandler(ContextOf(c), "photo")

	if !h.machine.ExpectsPhoto(user.ID) {
		return sendReply(c, h.machine.HandlePhoto(ctx, user.ID, "", false))
	}

	photo := c.Message().Photo
	if photo == nil {
		return sendReply(c, h.machine.HandlePhoto(ctx, user.ID, "", false))
	}

	recognized, found := h.recognize(ctx, c, &photo.File)
	return sendReply(c, h.machine.HandlePhoto(ctx, user.ID, recognized, found))
}

func (h *Handlers) recognize(ctx context.Context, c tele.Context, file *tele.File) (string, bool) {
	start := time.Now()

	rc, err := c.Bot().File(file)
	if err != nil {
		logger.Warn(ctx, "tg", "photo.download",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return "", false
	}
	defer rc.Close()

	image, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes))
	if err != nil {
		logger.Warn(ctx, "tg", "photo.download",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return "", false
	}

	text, err := h.recognizer.RecognizeText(ctx, image)
	if err != nil {
		logger.Debug(ctx, "tg", "photo.recognize",
			slog.String("status", "fail"),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return "", false
	}

	logger.Debug(ctx, "tg", "photo.recognize",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return text, true
}

// sendReply delivers a machine reply as a new message.
func sendReply(c tele.Context, r ledger.Reply) error {
	if r.Empty() {
		return nil
	}
	if markup := Markup(r.Choices); markup != nil {
		return c.Send(r.Text, markup)
	}
	return c.Send(r.Text)
}

// editReply rewrites the message the pressed button belongs to, falling back
// to a fresh message when editing is not possible (old message, same text).
func editReply(c tele.Context, r ledger.Reply) error {
	if r.Empty() {
		return nil
	}
	markup := Markup(r.Choices)

	var err error
	if markup != nil {
		err = c.Edit(r.Text, markup)
	} else {
		err = c.Edit(r.Text)
	}
	if err == nil {
		return nil
	}
	if markup != nil {
		return c.Send(r.Text, markup)
	}
	return c.Send(r.Text)
}
