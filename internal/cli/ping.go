package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingTimeout time.Duration

func newPingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the analysis service is reachable",
		Example: `  reportlens ping
  reportlens ping --server http://analysis.internal:8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			defer cancel()

			start := time.Now()
			if err := svc.HealthCheck(ctx); err != nil {
				return fmt.Errorf("%s %s is not reachable: %w", GetEmoji("error"), svc.BaseURL(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is reachable (%s)\n",
				GetEmoji("success"), svc.BaseURL(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().DurationVar(&pingTimeout, "timeout", 10*time.Second, "health check timeout")

	return cmd
}
