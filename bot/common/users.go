package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Invoker is the account behind an interaction
type Invoker struct {
	AccountID   int64
	DisplayName string
	Username    string
}

// InvokerFromInteraction extracts the calling user from a guild or DM interaction
func InvokerFromInteraction(i *discordgo.InteractionCreate) (*Invoker, error) {
	var user *discordgo.User
	nick := ""
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
		nick = i.Member.Nick
	} else {
		user = i.User
	}
	if user == nil {
		return nil, fmt.Errorf("interaction has no user")
	}

	id, err := ParseUserID(user.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	displayName := nick
	if displayName == "" {
		displayName = user.GlobalName
	}
	if displayName == "" {
		displayName = user.Username
	}

	return &Invoker{
		AccountID:   id,
		DisplayName: displayName,
		Username:    user.Username,
	}, nil
}

// ParseUserID converts a Discord user ID string to int64
func ParseUserID(userID string) (int64, error) {
	return strconv.ParseInt(userID, 10, 64)
}

// FormatUserID converts an int64 user ID to string
func FormatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID int64) string {
	return "<@" + FormatUserID(userID) + ">"
}
