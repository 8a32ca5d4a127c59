package balance

import (
	"testing"

	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBalanceMessage(t *testing.T) {
	me := &models.Account{AccountID: 5, Balance: decimal.RequireFromString("12.5"), ReferralCount: 3}

	t.Run("without ranking", func(t *testing.T) {
		msg := BalanceMessage(me, nil)
		assert.Equal(t, "💰 Баланс: **12.50 ⭐️**\n👥 Рефералов: **3**", msg)
	})

	t.Run("lists the richest accounts and bolds the viewer", func(t *testing.T) {
		top := []*models.Account{
			{AccountID: 1, DisplayName: "Аня", Balance: decimal.NewFromInt(900)},
			{AccountID: 2, Username: "boris", Balance: decimal.NewFromInt(400)},
			{AccountID: 5, Balance: decimal.RequireFromString("12.5")},
		}

		msg := BalanceMessage(me, top)
		assert.Contains(t, msg, "Топ по балансу")
		assert.Contains(t, msg, "🥇 Аня — 900.00 ⭐️")
		assert.Contains(t, msg, "🥈 boris — 400.00 ⭐️")
		assert.Contains(t, msg, "**🥉 <@5> — 12.50 ⭐️**")
	})
}
