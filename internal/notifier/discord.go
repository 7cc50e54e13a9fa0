package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

type Notifier interface {
	NotifyRegistration(registration models.Registration, created bool) error
}

// messageSender is the part of *discordgo.Session the notifier needs.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
	log       zerolog.Logger
}

// NewDiscordNotifier builds a bot session. Messages are sent over REST, so no
// gateway connection is opened.
func NewDiscordNotifier(token, channelID string, log zerolog.Logger) (*DiscordNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel ID is empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID, log: log}, nil
}

func (n *DiscordNotifier) NotifyRegistration(registration models.Registration, created bool) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, formatMessage(registration, created))
	if err != nil {
		n.log.Error().Err(err).Str("employee_id", registration.EmployeeID).Msg("failed to send discord message")
		return err
	}
	return nil
}

func formatMessage(registration models.Registration, created bool) string {
	status := "updated registration"
	if created {
		status = "registered 🎉"
	}

	activity := ""
	if registration.ActivityInterest != "" {
		activity = fmt.Sprintf("\n**Activity:** %s", registration.ActivityInterest)
	}

	return fmt.Sprintf("**Registration Update**\n**Participant:** %s (%s)\n**Status:** %s\n**Commute:** %s\n**Dietary:** %s%s",
		registration.Name,
		registration.EmployeeID,
		status,
		registration.Carpool,
		registration.Dietary,
		activity,
	)
}
