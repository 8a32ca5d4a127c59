package balance

import (
	"fmt"
	"strings"

	"github.com/botmakerspc/Stars-magnat-bota/bot/common"
	"github.com/botmakerspc/Stars-magnat-bota/models"
)

// topAccountsShown is how many of the richest accounts /balance lists
const topAccountsShown = 3

// BalanceMessage renders the invoker's balance followed by the richest accounts
func BalanceMessage(account *models.Account, top []*models.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 Баланс: **%s**\n👥 Рефералов: **%d**",
		common.FormatStars(account.Balance), account.ReferralCount)

	if len(top) == 0 {
		return b.String()
	}

	b.WriteString("\n\n**Топ по балансу:**")
	for idx, leader := range top {
		line := fmt.Sprintf("%s %s — %s", common.RankMarker(idx+1), accountName(leader), common.FormatStars(leader.Balance))
		if leader.AccountID == account.AccountID {
			line = "**" + line + "**"
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func accountName(a *models.Account) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.Username != "" {
		return a.Username
	}
	return common.GetUserMention(a.AccountID)
}
