package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestTournament returns an active tournament running from start for one day
// with a {1: 10, 2: 5} prize schedule
func CreateTestTournament(name string, start time.Time) *models.Tournament {
	start = start.UTC().Truncate(time.Microsecond)
	return &models.Tournament{
		Name:         name,
		StartTime:    start,
		EndTime:      start.Add(24 * time.Hour),
		DurationDays: 1,
		PrizePlaces:  2,
		PrizeSchedule: models.PrizeSchedule{
			1: decimal.NewFromInt(10),
			2: decimal.NewFromInt(5),
		},
		TrophyAssets: models.TrophyAssets{
			"1":                          "gold",
			models.DefaultTrophyAssetKey: "participant",
		},
		Status: models.TournamentStatusActive,
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(accountID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   decimal.NewFromInt(10),
		BalanceAfter:    decimal.NewFromInt(12),
		ChangeAmount:    decimal.NewFromInt(2),
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// InsertAccount creates an account row with the given balance
func InsertAccount(t *testing.T, db *database.DB, accountID int64, username string, balance decimal.Decimal) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO accounts (account_id, display_name, username, balance) VALUES ($1, $2, $3, $4)`,
		accountID, username, username, balance)
	require.NoError(t, err)
}

// SetLastScoredAt pins a participation's last_scored_at so tie-break tests are deterministic
func SetLastScoredAt(t *testing.T, db *database.DB, tournamentID, accountID int64, at time.Time) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`UPDATE participations SET last_scored_at = $3 WHERE tournament_id = $1 AND account_id = $2`,
		tournamentID, accountID, at)
	require.NoError(t, err)
}
