package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
)

// FormatStars formats an amount of stars with two decimals
func FormatStars(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " ⭐️"
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatWait renders a remaining duration as hours and minutes
func FormatWait(d time.Duration) string {
	if d < time.Minute {
		return "меньше минуты"
	}
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours == 0 {
		return fmt.Sprintf("%d мин", minutes)
	}
	return fmt.Sprintf("%d ч %d мин", hours, minutes)
}

// RankMarker returns a medal for the podium and the number otherwise
func RankMarker(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}

// StandingName picks the best label for a leaderboard row
func StandingName(s *models.Standing) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if s.Username != "" {
		return s.Username
	}
	return GetUserMention(s.AccountID)
}

// FormatLeaderboard renders standings one per line, bolding the viewer's own row
func FormatLeaderboard(standings []*models.Standing, viewerID int64) string {
	if len(standings) == 0 {
		return "Пока никто не набрал очков."
	}

	var b strings.Builder
	for _, s := range standings {
		line := fmt.Sprintf("%s %s — %d реф.", RankMarker(s.Position), StandingName(s), s.Score)
		if s.AccountID == viewerID {
			line = "**" + line + "**"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatPrizeSchedule lists rewards by rank, ranks without a reward are skipped
func FormatPrizeSchedule(t *models.Tournament) string {
	var lines []string
	for rank := 1; rank <= t.PrizePlaces; rank++ {
		if reward, ok := t.PrizeSchedule.RewardFor(rank); ok {
			lines = append(lines, fmt.Sprintf("%s %s", RankMarker(rank), FormatStars(reward)))
		}
	}
	if len(lines) == 0 {
		return "Без денежных призов"
	}
	return strings.Join(lines, "\n")
}
