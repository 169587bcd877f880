package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishguard/internal/bridge"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print remote and local statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			caller, release, err := openCaller(cmd.Context(), cmd, cfg, logger)
			if err != nil {
				return err
			}
			defer release()

			resp, err := caller.Call(cmd.Context(), bridge.Request{Action: bridge.ActionGetStats})
			if err != nil {
				return err
			}
			if !resp.OK || resp.Stats == nil {
				return errors.New(resp.Error)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Stats)
		},
	}
	addBridgeFlags(cmd)
	return cmd
}
