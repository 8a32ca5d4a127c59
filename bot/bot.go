package bot

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/bot/features/admin"
	"github.com/botmakerspc/Stars-magnat-bota/bot/features/balance"
	"github.com/botmakerspc/Stars-magnat-bota/bot/features/tournament"
	"github.com/botmakerspc/Stars-magnat-bota/config"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

type Bot struct {
	config     Config
	session    *discordgo.Session
	balance    *balance.Feature
	tournament *tournament.Feature
	admin      *admin.Feature
	commands   []*discordgo.ApplicationCommand
}

func New(config Config, ops *application.Operations, appConfig *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages

	bot := &Bot{
		config:     config,
		session:    dg,
		balance:    balance.New(ops, appConfig.MinWithdrawal),
		tournament: tournament.New(ops),
		admin:      admin.New(ops, appConfig.AdminDiscordID, appConfig.Location()),
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithField("guild", config.GuildID).Info("Discord bot connected")
	return bot, nil
}

// Notifier returns a direct-message notifier backed by the bot's session
func (b *Bot) Notifier() *DMNotifier {
	return NewDMNotifier(b.session)
}

func (b *Bot) Close() error {
	for _, cmd := range b.commands {
		if err := b.session.ApplicationCommandDelete(b.session.State.User.ID, b.config.GuildID, cmd.ID); err != nil {
			log.Warnf("Failed to delete command %s: %v", cmd.Name, err)
		}
	}
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "balance":
		b.balance.HandleBalance(s, i)
	case "bonus":
		b.balance.HandleBonus(s, i)
	case "withdraw":
		b.balance.HandleWithdraw(s, i)
	case "tournament":
		b.tournament.HandleTournament(s, i)
	case "trophies":
		b.tournament.HandleTrophies(s, i)
	case "create_tournament":
		b.admin.HandleCreateTournament(s, i)
	case "end_tournament":
		b.admin.HandleEndTournament(s, i)
	case "active_tournament":
		b.admin.HandleActiveTournament(s, i)
	default:
		log.Warnf("Unknown command: %s", i.ApplicationCommandData().Name)
	}
}
