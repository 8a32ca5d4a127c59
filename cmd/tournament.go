package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/bot/features/admin"
	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/spf13/cobra"
)

func newTournamentCommand() *cobra.Command {
	tournamentCmd := &cobra.Command{
		Use:   "tournament",
		Short: "Create, settle and inspect tournaments",
	}
	tournamentCmd.AddCommand(
		newTournamentCreateCommand(),
		newTournamentEndCommand(),
		newTournamentListCommand(),
		newTournamentLeaderboardCommand(),
	)
	return tournamentCmd
}

func newTournamentCreateCommand() *cobra.Command {
	var (
		start    string
		days     int
		prizes   string
		places   int
		trophies string
		message  string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a tournament",
		Example: `  starsbot tournament create "Осенний турнир" --start "01.10.2024 12:00" --days 7 \
    --prizes "1:100, 2:50, 3:25" --trophies "1:gold.png, default:medal.png"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			params, err := admin.New(nil, cfg.AdminDiscordID, cfg.Location()).
				BuildCreateParams(args[0], start, days, prizes, places, trophies, message)
			if err != nil {
				return err
			}

			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				tournament, err := ops.CreateTournament(cmd.Context(), params)
				if err != nil {
					return err
				}
				printf(cmd, "Created tournament %d %q: %s → %s, %d prize places\n",
					tournament.ID, tournament.Name,
					tournament.StartTime.In(cfg.Location()).Format(admin.StartTimeLayout),
					tournament.EndTime.In(cfg.Location()).Format(admin.StartTimeLayout),
					tournament.PrizePlaces)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start time, DD.MM.YYYY HH:MM in the configured timezone")
	cmd.Flags().IntVar(&days, "days", 7, "duration in days")
	cmd.Flags().StringVar(&prizes, "prizes", "", "rewards by rank, e.g. \"1:100, 2:50\"")
	cmd.Flags().IntVar(&places, "places", 0, "prize places (defaults to the highest rewarded rank)")
	cmd.Flags().StringVar(&trophies, "trophies", "", "trophy assets by rank or default")
	cmd.Flags().StringVar(&message, "message", "", "message broadcast when the tournament starts")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("prizes")
	return cmd
}

func newTournamentEndCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "end NAME",
		Short: "Settle an active tournament now and pay its winners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				result, err := ops.EndTournament(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSettlement(cmd, result)
				return nil
			})
		},
	}
}

func printSettlement(cmd *cobra.Command, result *service.SettlementResult) {
	if result.AlreadySettled {
		printf(cmd, "Tournament %q was already settled\n", result.Tournament.Name)
		return
	}
	printf(cmd, "Settled tournament %q with %d winners\n", result.Tournament.Name, len(result.Winners))
	if result.EndedEarly {
		printf(cmd, "Ended before %s\n", result.Tournament.EndTime.Format(time.RFC3339))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tACCOUNT\tNAME\tSCORE\tREWARD\tTROPHY")
	for _, winner := range result.Winners {
		reward := "-"
		if winner.Reward.Valid {
			reward = winner.Reward.Decimal.StringFixed(2)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n",
			winner.Rank, winner.AccountID, winner.DisplayName, winner.Score, reward, winner.AssetRef)
	}
	w.Flush()
}

func newTournamentListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent tournaments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := config.Get().Location()
			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				tournaments, err := ops.ListTournaments(cmd.Context(), pageSize(limit, 20))
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTART\tEND\tPLACES")
				for _, t := range tournaments {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", t.ID, t.Name, t.Status,
						t.StartTime.In(loc).Format(admin.StartTimeLayout),
						t.EndTime.In(loc).Format(admin.StartTimeLayout),
						t.PrizePlaces)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, fmt.Sprintf("maximum number of tournaments (at most %d)", service.MaxLeaderboardLimit))
	return cmd
}

func newTournamentLeaderboardCommand() *cobra.Command {
	var (
		id    int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show standings of a tournament (the active one by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				tournamentID := id
				if tournamentID == 0 {
					active, err := ops.ActiveTournament(cmd.Context())
					if err != nil {
						return err
					}
					if active == nil {
						printf(cmd, "No active tournament\n")
						return nil
					}
					tournamentID = active.ID
				}

				standings, err := ops.Leaderboard(cmd.Context(), tournamentID, pageSize(limit, application.LeaderboardSize))
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RANK\tACCOUNT\tNAME\tSCORE")
				for _, s := range standings {
					fmt.Fprintf(w, "%d\t%d\t%s\t%d\n", s.Position, s.AccountID, s.DisplayName, s.Score)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "tournament id")
	cmd.Flags().IntVar(&limit, "limit", application.LeaderboardSize, fmt.Sprintf("number of rows (at most %d)", service.MaxLeaderboardLimit))
	return cmd
}
