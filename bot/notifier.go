package bot

import (
	"context"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/bot/common"

	"github.com/bwmarrin/discordgo"
)

// DMNotifier delivers notifications as Discord direct messages
type DMNotifier struct {
	session *discordgo.Session
}

func NewDMNotifier(session *discordgo.Session) *DMNotifier {
	return &DMNotifier{session: session}
}

// Notify opens (or reuses) the DM channel with the account and posts the message
func (n *DMNotifier) Notify(ctx context.Context, accountID int64, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	channel, err := n.session.UserChannelCreate(common.FormatUserID(accountID), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %d: %w", accountID, err)
	}

	if _, err := n.session.ChannelMessageSend(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM to %d: %w", accountID, err)
	}
	return nil
}
