package discord

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) supervisorExists(supervisor string) bool {
	return slices.Contains(b.manager.AvailableSupervisors(), supervisor)
}

func (b *Bot) handleStartRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	words := strings.Fields(m.Content)
	if len(words) < 2 {
		s.ChannelMessageSend(m.ChannelID, "Usage: !start <profile1> [profile2] ...")
		return
	}

	for _, supervisor := range words[1:] {
		if !b.supervisorExists(supervisor) {
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Profile '%s' not found.", supervisor))
			continue
		}

		go b.manager.Start(supervisor)
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Profile '%s' is starting.", supervisor))
	}
}

func (b *Bot) handleStopRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	words := strings.Fields(m.Content)
	if len(words) < 2 {
		s.ChannelMessageSend(m.ChannelID, "Usage: !stop <profile1> [profile2] ...")
		return
	}

	for _, supervisor := range words[1:] {
		if !b.supervisorExists(supervisor) {
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Profile '%s' not found.", supervisor))
			continue
		}

		b.manager.Stop(supervisor)
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Profile '%s' has been stopped.", supervisor))
	}
}

func (b *Bot) handleStatusRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	words := strings.Fields(m.Content)
	if len(words) < 2 {
		s.ChannelMessageSend(m.ChannelID, "Usage: !status <profile>")
		return
	}

	supervisor := words[1]
	status, running := b.manager.Status(supervisor)
	if !running {
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Profile '%s' is not running.", supervisor))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s**\nPhase: %s\nActions: %d\nStarted: %s\n",
		supervisor, status.Phase, status.Actions, status.StartedAt.Format("15:04:05")))

	if len(status.Combos) > 0 {
		sb.WriteString("Combos:\n")
		for _, cd := range status.Combos {
			state := "ready"
			if cd.RemainingSec > 0 {
				state = fmt.Sprintf("%.1fs", cd.RemainingSec)
			}
			sb.WriteString(fmt.Sprintf("  %s: %s\n", cd.ID, state))
		}
	}

	s.ChannelMessageSend(m.ChannelID, sb.String())
}

func (b *Bot) handleListRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	available := b.manager.AvailableSupervisors()
	if len(available) == 0 {
		s.ChannelMessageSend(m.ChannelID, "No profiles configured.")
		return
	}

	running := b.manager.Running()
	var sb strings.Builder
	sb.WriteString("Profiles:\n")
	for _, name := range available {
		state := "stopped"
		if slices.Contains(running, name) {
			state = "running"
		}
		sb.WriteString(fmt.Sprintf("  %s (%s)\n", name, state))
	}

	s.ChannelMessageSend(m.ChannelID, sb.String())
}

func (b *Bot) handleHelpRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := "Available commands:\n" +
		"`!start <profile> ...` - start hunting profiles\n" +
		"`!stop <profile> ...` - stop hunting profiles\n" +
		"`!status <profile>` - show phase, action count and cooldowns\n" +
		"`!list` - list configured profiles\n" +
		"`!help` - this message"
	s.ChannelMessageSend(m.ChannelID, help)
}
