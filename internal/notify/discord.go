// Package notify delivers reminders to users over Discord.
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/BraxtonElmer/paimom/internal/domain"
	"github.com/BraxtonElmer/paimom/internal/store"
)

// DiscordSender implements reminder.Sender over a Discord session.
// Reminders go to the user's configured notification channel, or to a DM
// when none is set.
type DiscordSender struct {
	session *discordgo.Session
	repo    store.Repo
	log     *zap.Logger
}

// NewDiscordSender creates a sender on an open session.
func NewDiscordSender(session *discordgo.Session, repo store.Repo, log *zap.Logger) *DiscordSender {
	return &DiscordSender{session: session, repo: repo, log: log}
}

// Send delivers one reminder. Users with DMs disabled or who blocked the
// bot surface as an error; the scheduler decides what to do with it.
func (s *DiscordSender) Send(ctx context.Context, rem *domain.Reminder) error {
	channelID := ""
	if u, err := s.repo.GetUser(ctx, rem.UserID); err == nil {
		channelID = u.NotifyChannelID
	}

	if channelID == "" {
		ch, err := s.session.UserChannelCreate(rem.UserID)
		if err != nil {
			return fmt.Errorf("open dm with %s: %w", rem.UserID, err)
		}
		channelID = ch.ID
	}

	if _, err := s.session.ChannelMessageSend(channelID, FormatMessage(rem)); err != nil {
		return fmt.Errorf("send to %s: %w", rem.UserID, err)
	}
	s.log.Info("reminder delivered",
		zap.String("user", rem.UserID),
		zap.String("kind", string(rem.Kind)))
	return nil
}
