package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/voice-expense-tracker/internal/app"
)

func newParseCommand(e *env) *cobra.Command {
	var remote bool
	var currency string

	cmd := &cobra.Command{
		Use:   "parse [words...]",
		Short: "Parse a spoken expense transcript into a record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript := strings.Join(args, " ")
			if currency != "" {
				e.cfg.HomeCurrency = strings.ToUpper(currency)
			}

			if !remote {
				parser, err := app.NewLocalParser(e.cfg)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), parser.Parse(transcript))
			}

			c, err := e.components(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			if c.Remote == nil {
				return errors.New("remote parsing needs GEMINI_API_KEY or GCP_PROJECT_ID")
			}

			result, err := c.Remote.ParseTranscript(cmd.Context(), transcript)
			if err != nil {
				return fmt.Errorf("remote parse: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "use the hosted model instead of the local heuristics")
	cmd.Flags().StringVar(&currency, "currency", "", "home currency code (default from HOME_CURRENCY)")

	return cmd
}
