package admin

import (
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStartTime(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)

	got, err := ParseStartTime(" 25.12.2024 18:00 ", moscow)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 12, 25, 15, 0, 0, 0, time.UTC)))

	_, err = ParseStartTime("2024-12-25 18:00", moscow)
	assert.Error(t, err)
}

func TestParsePrizeSchedule(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[int]string
		wantErr bool
	}{
		{name: "colon pairs", input: "1:100, 2:50, 3:25.5", want: map[int]string{1: "100", 2: "50", 3: "25.5"}},
		{name: "equals and semicolons", input: "1=10; 2=5", want: map[int]string{1: "10", 2: "5"}},
		{name: "newlines", input: "1:10\n2:5\n", want: map[int]string{1: "10", 2: "5"}},
		{name: "empty", input: "  ", wantErr: true},
		{name: "zero rank", input: "0:10", wantErr: true},
		{name: "non numeric rank", input: "first:10", wantErr: true},
		{name: "duplicate rank", input: "1:10, 1:20", wantErr: true},
		{name: "bad amount", input: "1:lots", wantErr: true},
		{name: "missing separator", input: "1 10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrizeSchedule(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for rank, amount := range tt.want {
				assert.True(t, decimal.RequireFromString(amount).Equal(got[rank]), "rank %d", rank)
			}
		})
	}
}

func TestParseTrophyAssets(t *testing.T) {
	assets, err := ParseTrophyAssets("")
	require.NoError(t, err)
	assert.Empty(t, assets)

	assets, err = ParseTrophyAssets("1:gold.png, Default:medal.png")
	require.NoError(t, err)
	assert.Equal(t, models.TrophyAssets{"1": "gold.png", "default": "medal.png"}, assets)

	assets, err = ParseTrophyAssets("01:gold.png, 002:silver.png")
	require.NoError(t, err)
	assert.Equal(t, models.TrophyAssets{"1": "gold.png", "2": "silver.png"}, assets)
	assert.Equal(t, "gold.png", assets.AssetFor(1))

	_, err = ParseTrophyAssets("1:gold.png, 01:other.png")
	assert.Error(t, err)

	_, err = ParseTrophyAssets("winner:gold.png")
	assert.Error(t, err)

	_, err = ParseTrophyAssets("1:")
	assert.Error(t, err)
}

func TestBuildCreateParams(t *testing.T) {
	f := New(nil, 1, time.UTC)

	params, err := f.BuildCreateParams("Осень", "01.10.2024 12:00", 7, "1:100, 2:50", 0, "default:cup.png", "Поехали!")
	require.NoError(t, err)
	assert.Equal(t, "Осень", params.Name)
	assert.Equal(t, time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC), params.StartTime)
	assert.Equal(t, 7, params.DurationDays)
	assert.Len(t, params.PrizeSchedule, 2)
	assert.Equal(t, "cup.png", params.TrophyAssets[models.DefaultTrophyAssetKey])
	assert.Equal(t, "Поехали!", params.StartMessage)

	_, err = f.BuildCreateParams("Осень", "tomorrow", 7, "1:100", 0, "", "")
	assert.Error(t, err)
}

func TestBuildSettlementEmbed(t *testing.T) {
	tournament := &models.Tournament{ID: 3, Name: "Лето"}

	embed := BuildSettlementEmbed(&service.SettlementResult{Tournament: tournament, AlreadySettled: true})
	assert.Contains(t, embed.Description, "уже был завершён")

	embed = BuildSettlementEmbed(&service.SettlementResult{Tournament: tournament})
	assert.Contains(t, embed.Description, "Участников не было")

	embed = BuildSettlementEmbed(&service.SettlementResult{
		Tournament: tournament,
		Winners: []service.Winner{
			{Rank: 1, AccountID: 10, DisplayName: "Аня", Score: 12, Reward: decimal.NewNullDecimal(decimal.NewFromInt(100))},
			{Rank: 2, AccountID: 11, Score: 7},
		},
	})
	assert.Contains(t, embed.Title, "Лето")
	assert.Contains(t, embed.Description, "🥇 Аня — 12 реф. (награда: 100.00 ⭐️)")
	assert.Contains(t, embed.Description, "🥈 <@11> — 7 реф.")
	assert.Nil(t, embed.Footer)

	embed = BuildSettlementEmbed(&service.SettlementResult{Tournament: tournament, EndedEarly: true})
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Завершён досрочно", embed.Footer.Text)
}
