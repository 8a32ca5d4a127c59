package application

import (
	"fmt"
	"strings"

	"github.com/botmakerspc/Stars-magnat-bota/events"

	"github.com/shopspring/decimal"
)

// FormatStars renders an amount the way balances are shown to users
func FormatStars(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " ⭐️"
}

// WinnerMessage is the direct message a prize winner receives after settlement
func WinnerMessage(tournamentName string, winner events.SettledWinner) string {
	var b strings.Builder
	b.WriteString("🎉 **Поздравляем!**\n\n")
	fmt.Fprintf(&b, "Ты занял %d место в турнире **%s**!\n", winner.Rank, tournamentName)
	if winner.Reward.Valid && winner.Reward.Decimal.IsPositive() {
		fmt.Fprintf(&b, "🏆 Твоя награда: %s\n", FormatStars(winner.Reward.Decimal))
	}
	b.WriteString("\nТрофей уже ждёт тебя в /trophies 🏅")
	return b.String()
}

// ReferralMessage is the direct message a referrer receives for a credited referral
func ReferralMessage(event events.ReferralRegisteredEvent) string {
	return fmt.Sprintf("👤 По твоей ссылке пришёл %s!\n+%s на баланс. Всего рефералов: %d",
		event.NewAccountTag, FormatStars(event.Reward), event.ReferralCount)
}

// BonusReminderMessage tells an account its daily bonus is available again
func BonusReminderMessage() string {
	return "🎁 Ежедневный бонус снова доступен! Забери его командой /bonus"
}
