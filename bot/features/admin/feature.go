package admin

import (
	"context"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/bwmarrin/discordgo"
)

// Operations is what the operator commands need
type Operations interface {
	CreateTournament(ctx context.Context, params service.CreateTournamentParams) (*models.Tournament, error)
	EndTournament(ctx context.Context, name string) (*service.SettlementResult, error)
	ActiveTournaments(ctx context.Context) ([]*models.Tournament, error)
}

// Feature serves the operator-only tournament commands
type Feature struct {
	ops      Operations
	adminID  int64
	location *time.Location
}

func New(ops Operations, adminID int64, location *time.Location) *Feature {
	return &Feature{
		ops:      ops,
		adminID:  adminID,
		location: location,
	}
}

func (f *Feature) HandleCreateTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.authorize(s, i) {
		return
	}
	f.handleCreateTournament(s, i)
}

func (f *Feature) HandleEndTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.authorize(s, i) {
		return
	}
	f.handleEndTournament(s, i)
}

func (f *Feature) HandleActiveTournament(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.authorize(s, i) {
		return
	}
	f.handleActiveTournament(s, i)
}
