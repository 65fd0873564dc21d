package telegram

import (
	tele "gopkg.in/telebot.v4"

	"github.com/Dharshan209/fintrack-bot/internal/ledger"
)

// Markup renders reply choices as an inline keyboard, one button per row.
// Returns nil when there are no choices so callers can pass it straight to
// Send/Edit.
func Markup(choices []ledger.Choice) *tele.ReplyMarkup {
	if len(choices) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(choices))
	for i, ch := range choices {
		var btn tele.Btn
		if ch.Data != "" {
			btn = markup.Data(ch.Label, ch.Key, ch.Data)
		} else {
			btn = markup.Data(ch.Label, ch.Key)
		}
		inline[i] = []tele.InlineButton{*btn.Inline()}
	}
	markup.InlineKeyboard = inline
	return markup
}
