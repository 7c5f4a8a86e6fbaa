package notify

import (
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ChannelSender posts a message to a Discord channel. *discordgo.Session
// implements it.
type ChannelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notifications to a Discord channel in the background.
type Discord struct {
	sender    ChannelSender
	channelID string
	logger    *log.Logger

	wg sync.WaitGroup
}

// NewDiscord creates a Discord sink authenticated with a bot token.
func NewDiscord(token, channelID string, logger *log.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}
	return NewDiscordWithSender(session, channelID, logger), nil
}

// NewDiscordWithSender creates a Discord sink posting through sender.
func NewDiscordWithSender(sender ChannelSender, channelID string, logger *log.Logger) *Discord {
	return &Discord{sender: sender, channelID: channelID, logger: logger}
}

func (d *Discord) Receive(title, message string, sev Severity) {
	content := fmt.Sprintf("%s **%s**\n%s", badge(sev), title, message)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.sender.ChannelMessageSend(d.channelID, content); err != nil {
			d.logger.Printf("posting notification to Discord channel %s: %v", d.channelID, err)
		}
	}()
}

// Flush waits for pending posts to finish.
func (d *Discord) Flush() {
	d.wg.Wait()
}

func badge(sev Severity) string {
	switch sev {
	case Success:
		return "✅"
	case Warning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
