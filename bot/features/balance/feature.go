package balance

import (
	"context"

	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

// Operations is what the balance commands need from the application layer
type Operations interface {
	EnsureAccount(ctx context.Context, accountID int64, displayName, username string) (*models.Account, error)
	ClaimDailyBonus(ctx context.Context, accountID int64) (*service.BonusClaim, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Account, error)
	TopAccounts(ctx context.Context, limit int) ([]*models.Account, error)
}

// Feature serves /balance, /bonus and /withdraw
type Feature struct {
	ops           Operations
	minWithdrawal decimal.Decimal
}

func New(ops Operations, minWithdrawal decimal.Decimal) *Feature {
	return &Feature{
		ops:           ops,
		minWithdrawal: minWithdrawal,
	}
}

func (f *Feature) HandleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBalance(s, i)
}

func (f *Feature) HandleBonus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBonus(s, i)
}

func (f *Feature) HandleWithdraw(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleWithdraw(s, i)
}
