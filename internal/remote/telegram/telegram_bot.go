package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kaelthys/atreia/internal/bot"
	"github.com/kaelthys/atreia/internal/event"
)

type Bot struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	logger  *slog.Logger
	manager *bot.SupervisorManager
}

func (b *Bot) Start(ctx context.Context) error {
	offset, err := b.getLatestOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.Chat != nil && update.Message.Chat.ID == b.chatID {
				b.handleCommand(strings.ToLower(strings.TrimSpace(update.Message.Text)))
			}
		}
	}
}

func (b *Bot) handleCommand(text string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case "list":
		running := b.manager.Running()
		var sb strings.Builder
		sb.WriteString("Profiles:\n")
		for _, name := range b.manager.AvailableSupervisors() {
			state := "stopped"
			if slices.Contains(running, name) {
				state = "running"
			}
			sb.WriteString(fmt.Sprintf("%s (%s)\n", name, state))
		}
		b.send(sb.String())
	case "status":
		if len(words) < 2 {
			b.send("Usage: status <profile>")
			return
		}
		status, running := b.manager.Status(words[1])
		if !running {
			b.send(fmt.Sprintf("Profile %s is not running", words[1]))
			return
		}
		b.send(fmt.Sprintf("%s: phase %s, %d actions", words[1], status.Phase, status.Actions))
	case "stop":
		if len(words) < 2 {
			b.send("Usage: stop <profile>")
			return
		}
		b.manager.Stop(words[1])
		b.send(fmt.Sprintf("Profile %s stopped", words[1]))
	}
}

// Handle forwards engine events to the configured chat.
func (b *Bot) Handle(_ context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.HuntStartedEvent, event.HuntFinishedEvent:
		b.send(fmt.Sprintf("[%s] %s", e.Supervisor(), e.Message()))
	case event.EmergencyStopEvent:
		b.send(fmt.Sprintf("[%s] Emergency stop triggered", e.Supervisor()))
	case event.NgrokTunnelEvent:
		b.send(fmt.Sprintf("%s: %s", evt.Message(), evt.URL))
	}
	return nil
}

func (b *Bot) send(text string) {
	if _, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Error("error sending telegram message", slog.Any("error", err))
	}
}

func (b *Bot) getLatestOffset() (int, error) {
	upds, err := b.bot.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}
