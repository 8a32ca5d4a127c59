package tournament

import (
	"context"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/bwmarrin/discordgo"
)

// Operations is what the participant tournament commands need
type Operations interface {
	EnsureAccount(ctx context.Context, accountID int64, displayName, username string) (*models.Account, error)
	TournamentView(ctx context.Context, accountID int64) (*application.TournamentView, error)
	ListTrophies(ctx context.Context, accountID int64) ([]*models.Trophy, error)
}

// Feature serves /tournament and /trophies
type Feature struct {
	ops Operations
}

func New(ops Operations) *Feature {
	return &Feature{ops: ops}
}

func (f *Feature) HandleTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleTournament(s, i)
}

func (f *Feature) HandleTrophies(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleTrophies(s, i)
}
