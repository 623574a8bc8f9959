package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord posts messages to a single channel. The session runs without
// gateway intents; plain REST sends need no event subscription.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord creates a Discord notifier from a bot token and channel ID.
func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel ID are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

// Send posts one message to the configured channel.
func (d *Discord) Send(message string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, message); err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	return nil
}

// Close releases the session.
func (d *Discord) Close() error {
	return d.session.Close()
}
