package tournament

import (
	"context"

	"github.com/botmakerspc/Stars-magnat-bota/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	invoker, err := common.InvokerFromInteraction(i)
	if err != nil {
		log.Errorf("Error reading invoker: %v", err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	if _, err := f.ops.EnsureAccount(ctx, invoker.AccountID, invoker.DisplayName, invoker.Username); err != nil {
		log.Errorf("Error ensuring account %d: %v", invoker.AccountID, err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	view, err := f.ops.TournamentView(ctx, invoker.AccountID)
	if err != nil {
		log.Errorf("Error loading tournament view for %d: %v", invoker.AccountID, err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	if view == nil {
		common.RespondWithEmbed(s, i, BuildNoTournamentEmbed(), true)
		return
	}
	common.RespondWithEmbed(s, i, BuildTournamentEmbed(view, invoker.AccountID), true)
}

func (f *Feature) handleTrophies(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	invoker, err := common.InvokerFromInteraction(i)
	if err != nil {
		log.Errorf("Error reading invoker: %v", err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	trophies, err := f.ops.ListTrophies(ctx, invoker.AccountID)
	if err != nil {
		log.Errorf("Error listing trophies for %d: %v", invoker.AccountID, err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	common.RespondWithEmbed(s, i, BuildTrophiesEmbed(trophies), true)
}
