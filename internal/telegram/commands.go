package telegram

import (
	"context"

	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/logger"
)

// SetupCommands publishes the command list shown in the Telegram client menu.
func SetupCommands(ctx context.Context, bot *tele.Bot) {
	commands := []tele.Command{
		{Text: "start", Description: "Start the bot and show the main menu"},
		{Text: "menu", Description: "Show the main menu"},
	}
	if err := bot.SetCommands(commands); err != nil {
		logger.Warn(ctx, "tg", "commands.set",
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, "tg", "commands.set",
		slog.Int("count", len(commands)),
	)
}
