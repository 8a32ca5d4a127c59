package bot

import (
	"testing"

	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, name string) *discordgo.ApplicationCommand {
	t.Helper()
	for _, cmd := range Commands() {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestCreateTournamentPlacesAreBounded(t *testing.T) {
	cmd := findCommand(t, "create_tournament")

	var places *discordgo.ApplicationCommandOption
	for _, opt := range cmd.Options {
		if opt.Name == "places" {
			places = opt
		}
	}
	require.NotNil(t, places)
	require.NotNil(t, places.MinValue)
	assert.Equal(t, 1.0, *places.MinValue)
	assert.Equal(t, float64(service.MaxPrizePlaces), places.MaxValue)
}

func TestAdminCommandsRequireAdministrator(t *testing.T) {
	for _, name := range []string{"create_tournament", "end_tournament", "active_tournament"} {
		cmd := findCommand(t, name)
		require.NotNil(t, cmd.DefaultMemberPermissions, name)
		assert.Equal(t, int64(discordgo.PermissionAdministrator), *cmd.DefaultMemberPermissions, name)
	}
}
