package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newGamesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "games",
		Short: "List finished and in-progress games for the current player",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/players/me/games"
			if limit > 0 {
				path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
			}

			var result GameList
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of games (server default when 0)")

	return cmd
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session <id>",
		Short: "Show a live session you are playing in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			err := client.Get(cmd.Context(), "/api/v1/sessions/"+url.PathEscape(args[0]), &result)
			if HasCode(err, CodeSessionNotFound) {
				return fmt.Errorf("session %s is not live; finished games are listed by 'games'", args[0])
			}
			if err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
