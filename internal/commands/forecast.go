package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/voice-expense-tracker/internal/auth"
)

func newForecastCommand(e *env) *cobra.Command {
	var uid string
	var latest bool

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the next months of spending for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.components(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			if c.Forecaster == nil {
				return errors.New("forecasting needs GEMINI_API_KEY or GCP_PROJECT_ID")
			}

			id := auth.Identity{UID: uid}
			if latest {
				p, err := c.Forecaster.Latest(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("latest forecast: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), p)
			}

			f, err := c.Forecaster.Forecast(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("forecast: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"forecast": f})
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "user id (required)")
	_ = cmd.MarkFlagRequired("uid")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the stored prediction instead of running a new one")

	return cmd
}
