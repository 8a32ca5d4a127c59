package bot

import (
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/bwmarrin/discordgo"
)

var (
	adminPermissions int64 = discordgo.PermissionAdministrator
	minPrizePlaces         = 1.0
)

// Commands returns every slash command the bot serves
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Показать баланс звёзд",
		},
		{
			Name:        "bonus",
			Description: "Забрать ежедневный бонус",
		},
		{
			Name:        "withdraw",
			Description: "Вывести звёзды",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "amount",
					Description: "Сколько звёзд вывести",
					Required:    true,
				},
			},
		},
		{
			Name:        "tournament",
			Description: "Текущий турнир рефералов и твоё место",
		},
		{
			Name:        "trophies",
			Description: "Твои турнирные награды",
		},
		{
			Name:                     "create_tournament",
			Description:              "Создать турнир (только администратор)",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Название турнира",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "start",
					Description: "Начало, ДД.ММ.ГГГГ ЧЧ:ММ",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "Длительность в днях",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prizes",
					Description: "Призы по местам, например 1:100, 2:50",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "places",
					Description: "Количество призовых мест",
					MinValue:    &minPrizePlaces,
					MaxValue:    service.MaxPrizePlaces,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "trophies",
					Description: "Трофеи по местам, например 1:gold.png, default:medal.png",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Сообщение для рассылки при старте",
				},
			},
		},
		{
			Name:                     "end_tournament",
			Description:              "Завершить турнир и выдать награды (только администратор)",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Название турнира",
					Required:    true,
				},
			},
		},
		{
			Name:                     "active_tournament",
			Description:              "Активные турниры (только администратор)",
			DefaultMemberPermissions: &adminPermissions,
		},
	}
}

// registerCommands registers all slash commands with Discord, scoped to the guild when one is configured
func (b *Bot) registerCommands() error {
	for _, cmd := range Commands() {
		created, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
		b.commands = append(b.commands, created)
	}
	return nil
}
