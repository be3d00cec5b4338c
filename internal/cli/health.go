package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health and the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			start := time.Now()
			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}
			result.LatencyMs = time.Since(start).Milliseconds()

			result.Credential = credentialNone
			if cfg.Token != "" {
				var me Principal
				switch err := client.Get(cmd.Context(), "/api/v1/players/me", &me); {
				case err == nil:
					result.Credential = credentialValid
				case HasCode(err, CodeUnauthorized):
					result.Credential = credentialRejected
				default:
					return err
				}
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
