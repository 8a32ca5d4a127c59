package tournament

import (
	"fmt"
	"strings"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/bot/common"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/bwmarrin/discordgo"
)

const (
	colorGold      = 0xF1C40F
	colorGrey      = 0x95A5A6
	maxTrophyLines = 15
)

// BuildTournamentEmbed shows the active tournament from the viewer's perspective
func BuildTournamentEmbed(view *application.TournamentView, viewerID int64) *discordgo.MessageEmbed {
	t := view.Tournament
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏆 %s", t.Name),
		Description: fmt.Sprintf("Приглашай друзей: каждый реферал приносит очко в турнире.\nФиниш %s (%s)",
			common.FormatDiscordTimestamp(t.EndTime, "f"), common.FormatDiscordTimestamp(t.EndTime, "R")),
		Color: colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Твоё место",
				Value:  fmt.Sprintf("#%d · %d реф.", view.Rank, view.Score),
				Inline: true,
			},
			{
				Name:   "Участников",
				Value:  fmt.Sprintf("%d", view.Participants),
				Inline: true,
			},
			{
				Name:   "Призы",
				Value:  common.FormatPrizeSchedule(t),
				Inline: true,
			},
			{
				Name:  "Лидеры",
				Value: common.FormatLeaderboard(view.Leaders, viewerID),
			},
		},
	}
}

// BuildNoTournamentEmbed is shown when nothing is running
func BuildNoTournamentEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🏆 Турниры",
		Description: "Сейчас нет активного турнира. Следи за объявлениями!",
		Color:       colorGrey,
	}
}

// BuildTrophiesEmbed lists the account's trophies, newest first
func BuildTrophiesEmbed(trophies []*models.Trophy) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏅 Мои награды",
		Color: colorGold,
	}

	if len(trophies) == 0 {
		embed.Description = "У тебя пока нет наград. Участвуй в турнирах!"
		embed.Color = colorGrey
		return embed
	}

	var lines []string
	for idx, trophy := range trophies {
		if idx == maxTrophyLines {
			lines = append(lines, fmt.Sprintf("…и ещё %d", len(trophies)-maxTrophyLines))
			break
		}
		line := fmt.Sprintf("%s **%s** · %s", common.RankMarker(trophy.Rank), trophy.TournamentName,
			common.FormatDiscordTimestamp(trophy.AwardedAt, "d"))
		if trophy.Reward.Valid {
			line += " · " + common.FormatStars(trophy.Reward.Decimal)
		}
		lines = append(lines, line)
	}
	embed.Description = strings.Join(lines, "\n")

	// The newest trophy's asset, when it is a URL, becomes the thumbnail
	if asset := trophies[0].AssetRef; strings.HasPrefix(asset, "http://") || strings.HasPrefix(asset, "https://") {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: asset}
	}
	return embed
}
