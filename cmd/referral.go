package cmd

import (
	"errors"
	"strconv"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/spf13/cobra"
)

func newReferralCommand() *cobra.Command {
	var displayName, username string

	cmd := &cobra.Command{
		Use:   "referral NEW_ACCOUNT_ID REFERRER_ID",
		Short: "Register a referral and credit the referrer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newAccountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			referrerID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}

			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				result, err := ops.ProcessReferral(cmd.Context(), application.ReferralRequest{
					NewAccountID: newAccountID,
					DisplayName:  displayName,
					Username:     username,
					ReferrerID:   referrerID,
				})
				if errors.Is(err, service.ErrAlreadyReferred) {
					printf(cmd, "Account %d was already referred, nothing changed\n", newAccountID)
					return nil
				}
				if err != nil {
					return err
				}

				printf(cmd, "Credited %s to %d (referrals: %d)\n", result.Reward.StringFixed(2), result.ReferrerID, result.ReferralCount)
				if result.Tournament != nil {
					printf(cmd, "Tournament %q score: %d\n", result.Tournament.Name, result.Score)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&displayName, "name", "", "display name of the new account")
	cmd.Flags().StringVar(&username, "username", "", "username of the new account")
	return cmd
}
