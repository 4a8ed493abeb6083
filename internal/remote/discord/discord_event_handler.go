package discord

import (
	"context"
	"fmt"

	"github.com/kaelthys/atreia/internal/event"
)

func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.HuntStartedEvent:
		return b.sendEventMessage(ctx, fmt.Sprintf("**[%s]** %s", evt.Supervisor(), evt.Message()))
	case event.HuntFinishedEvent:
		return b.sendEventMessage(ctx, fmt.Sprintf("**[%s]** %s", evt.Supervisor(), evt.Message()))
	case event.EmergencyStopEvent:
		return b.sendEventMessage(ctx, fmt.Sprintf("**[%s]** Emergency stop triggered", evt.Supervisor()))
	case event.ComboExecutedEvent:
		return b.sendEventMessage(ctx, fmt.Sprintf("**[%s]** executed combo **%s**", evt.Supervisor(), evt.ComboName))
	case event.NgrokTunnelEvent:
		return b.sendEventMessage(ctx, fmt.Sprintf("%s: %s", evt.Message(), evt.URL))
	}

	return nil
}

func (b *Bot) sendEventMessage(ctx context.Context, message string) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message)
	}

	_, err := b.discordSession.ChannelMessageSend(b.channelID, message)
	return err
}
