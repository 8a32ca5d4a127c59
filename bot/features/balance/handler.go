package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/bot/common"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	invoker, err := common.InvokerFromInteraction(i)
	if err != nil {
		log.Errorf("Error reading invoker: %v", err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	account, err := f.ops.EnsureAccount(ctx, invoker.AccountID, invoker.DisplayName, invoker.Username)
	if err != nil {
		log.Errorf("Error getting account %d: %v", invoker.AccountID, err)
		common.RespondWithError(s, i, "Не удалось получить баланс. Попробуй ещё раз.")
		return
	}

	top, err := f.ops.TopAccounts(ctx, topAccountsShown)
	if err != nil {
		log.Warnf("Error listing top accounts: %v", err)
	}

	common.RespondWithMessage(s, i, BalanceMessage(account, top), true)
}

func (f *Feature) handleBonus(s *discordgo.Session, i *discordgo.InteractionCreate) {
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

	claim, err := f.ops.ClaimDailyBonus(ctx, invoker.AccountID)
	if err != nil {
		var notReady *service.BonusNotReadyError
		if errors.As(err, &notReady) {
			common.RespondWithMessage(s, i,
				fmt.Sprintf("⏳ Бонус уже получен. Следующий через %s.", common.FormatWait(notReady.Remaining)), true)
			return
		}
		log.Errorf("Error claiming bonus for %d: %v", invoker.AccountID, err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	message := fmt.Sprintf("🎁 +%s! Баланс: **%s**\nСледующий бонус %s",
		common.FormatStars(claim.Amount),
		common.FormatStars(claim.Account.Balance),
		common.FormatDiscordTimestamp(claim.NextClaimAt, "R"))
	common.RespondWithMessage(s, i, message, true)
}

func (f *Feature) handleWithdraw(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	invoker, err := common.InvokerFromInteraction(i)
	if err != nil {
		log.Errorf("Error reading invoker: %v", err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
		return
	}

	var amount decimal.Decimal
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "amount" {
			amount = decimal.NewFromFloat(opt.FloatValue())
		}
	}

	account, err := f.ops.Withdraw(ctx, invoker.AccountID, amount)
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"account_id": invoker.AccountID,
			"amount":     amount.StringFixed(2),
		}).Info("Withdrawal requested")
		common.RespondWithMessage(s, i, fmt.Sprintf("✅ Заявка на вывод %s принята. Остаток: **%s**",
			common.FormatStars(amount), common.FormatStars(account.Balance)), true)
	case errors.Is(err, service.ErrBelowMinimumWithdrawal):
		common.RespondWithError(s, i, fmt.Sprintf("Минимальная сумма вывода %s.", common.FormatStars(f.minWithdrawal)))
	case errors.Is(err, service.ErrInsufficientFunds), errors.Is(err, service.ErrAccountNotFound):
		common.RespondWithError(s, i, "Недостаточно звёзд на балансе.")
	default:
		log.Errorf("Error withdrawing for %d: %v", invoker.AccountID, err)
		common.RespondWithError(s, i, common.GenericErrorMessage)
	}
}
