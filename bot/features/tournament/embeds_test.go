package tournament

import (
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTournamentEmbed(t *testing.T) {
	view := &application.TournamentView{
		Tournament:   &models.Tournament{ID: 1, Name: "Весенний кубок", EndTime: time.Now().Add(48 * time.Hour), PrizePlaces: 3},
		Rank:         4,
		Score:        2,
		Participants: 31,
		Leaders: []*models.Standing{
			{Position: 1, AccountID: 10, Score: 9},
		},
	}

	embed := BuildTournamentEmbed(view, 42)

	assert.Contains(t, embed.Title, "Весенний кубок")
	fields := map[string]string{}
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}
	require.Contains(t, fields, "Участников")
	assert.Equal(t, "31", fields["Участников"])
	assert.Equal(t, "#4 · 2 реф.", fields["Твоё место"])
	assert.Equal(t, "Без денежных призов", fields["Призы"])
}

func TestBuildTrophiesEmbed_Empty(t *testing.T) {
	embed := BuildTrophiesEmbed(nil)
	assert.Contains(t, embed.Description, "нет наград")
	assert.Equal(t, colorGrey, embed.Color)
}
