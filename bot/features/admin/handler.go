package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/botmakerspc/Stars-magnat-bota/bot/common"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// authorize rejects everyone but the configured operator
func (f *Feature) authorize(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	invoker, err := common.InvokerFromInteraction(i)
	if err != nil || f.adminID == 0 || invoker.AccountID != f.adminID {
		common.RespondWithError(s, i, "Команда доступна только администратору.")
		return false
	}
	return true
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		options[opt.Name] = opt
	}
	return options
}

// BuildCreateParams turns the raw command options into tournament parameters
func (f *Feature) BuildCreateParams(name, start string, days int, prizes string, places int, trophies, message string) (service.CreateTournamentParams, error) {
	startTime, err := ParseStartTime(start, f.location)
	if err != nil {
		return service.CreateTournamentParams{}, err
	}
	schedule, err := ParsePrizeSchedule(prizes)
	if err != nil {
		return service.CreateTournamentParams{}, err
	}
	assets, err := ParseTrophyAssets(trophies)
	if err != nil {
		return service.CreateTournamentParams{}, err
	}

	return service.CreateTournamentParams{
		Name:          name,
		StartTime:     startTime,
		DurationDays:  days,
		PrizePlaces:   places,
		PrizeSchedule: schedule,
		TrophyAssets:  assets,
		StartMessage:  message,
	}, nil
}

func (f *Feature) handleCreateTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := optionMap(i)

	str := func(name string) string {
		if opt, ok := options[name]; ok {
			return opt.StringValue()
		}
		return ""
	}
	num := func(name string) int {
		if opt, ok := options[name]; ok {
			return int(opt.IntValue())
		}
		return 0
	}

	params, err := f.BuildCreateParams(str("name"), str("start"), num("days"), str("prizes"), num("places"), str("trophies"), str("message"))
	if err != nil {
		common.RespondWithError(s, i, err.Error())
		return
	}

	tournament, err := f.ops.CreateTournament(ctx, params)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidTournament), errors.Is(err, service.ErrTournamentOverlap):
		common.RespondWithError(s, i, err.Error())
		return
	default:
		log.Errorf("Error creating tournament: %v", err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	message := fmt.Sprintf("✅ Турнир **%s** создан (id %d)\nСтарт: %s\nФиниш: %s\nПризовых мест: %d\n%s",
		tournament.Name, tournament.ID,
		common.FormatDiscordTimestamp(tournament.StartTime, "f"),
		common.FormatDiscordTimestamp(tournament.EndTime, "f"),
		tournament.PrizePlaces,
		common.FormatPrizeSchedule(tournament))
	common.RespondWithMessage(s, i, message, true)
}

func (f *Feature) handleEndTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	name := ""
	if opt, ok := optionMap(i)["name"]; ok {
		name = opt.StringValue()
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring end tournament response: %v", err)
		return
	}

	result, err := f.ops.EndTournament(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrTournamentNotFound) {
			common.FollowUpWithError(s, i, fmt.Sprintf("Активный турнир «%s» не найден.", name))
			return
		}
		log.Errorf("Error ending tournament %q: %v", name, err)
		common.FollowUpWithError(s, i, common.GenericErrorMessage)
		return
	}

	common.FollowUpWithEmbed(s, i, BuildSettlementEmbed(result), true)
}

// BuildSettlementEmbed summarizes a settlement for the operator
func BuildSettlementEmbed(result *service.SettlementResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("✅ Турнир «%s» завершён", result.Tournament.Name),
		Color: 0x2ECC71,
	}

	if result.AlreadySettled {
		embed.Description = "Турнир уже был завершён ранее, награды не выдавались повторно."
		return embed
	}
	if result.EndedEarly {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Завершён досрочно"}
	}
	if len(result.Winners) == 0 {
		embed.Description = "Участников не было, награды не выданы."
		return embed
	}

	var lines []string
	for _, w := range result.Winners {
		name := w.DisplayName
		if name == "" {
			name = common.GetUserMention(w.AccountID)
		}
		line := fmt.Sprintf("%s %s — %d реф.", common.RankMarker(w.Rank), name, w.Score)
		if w.Reward.Valid {
			line += fmt.Sprintf(" (награда: %s)", common.FormatStars(w.Reward.Decimal))
		}
		lines = append(lines, line)
	}
	embed.Description = "**Победители:**\n" + strings.Join(lines, "\n")
	return embed
}

func (f *Feature) handleActiveTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	tournaments, err := f.ops.ActiveTournaments(ctx)
	if err != nil {
		log.Errorf("Error listing active tournaments: %v", err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	if len(tournaments) == 0 {
		common.RespondWithMessage(s, i, "Сейчас нет активных турниров.", true)
		return
	}

	var lines []string
	for _, t := range tournaments {
		lines = append(lines, fmt.Sprintf("• **%s** (id %d): %s → %s, мест: %d",
			t.Name, t.ID,
			common.FormatDiscordTimestamp(t.StartTime, "f"),
			common.FormatDiscordTimestamp(t.EndTime, "f"),
			t.PrizePlaces))
	}
	common.RespondWithMessage(s, i, strings.Join(lines, "\n"), true)
}
