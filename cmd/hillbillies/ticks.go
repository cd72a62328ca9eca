package main

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	persistlog "hillbillies.sim/internal/persistence/log"
	"hillbillies.sim/internal/sim/world"
)

func newTicksCommand(rf *rootFlags) *cobra.Command {
	var (
		worldDir   string
		worldID    string
		from, to   uint64
		errorsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "Print tick log entries as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := strings.TrimSpace(worldDir)
			if dir == "" {
				dir = filepath.Join(rf.dataDir, "worlds", worldID)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return persistlog.ReadTicks(dir, func(e world.TickLogEntry) error {
				if e.Tick < from || (to > 0 && e.Tick > to) {
					return nil
				}
				if errorsOnly && len(e.Errors) == 0 {
					return nil
				}
				return enc.Encode(e)
			})
		},
	}
	cmd.Flags().StringVar(&worldDir, "world-dir", "", "world data directory (default: <data>/worlds/<world>)")
	cmd.Flags().StringVar(&worldID, "world", "world_1", "world id")
	cmd.Flags().Uint64Var(&from, "from", 0, "first tick to print")
	cmd.Flags().Uint64Var(&to, "to", 0, "last tick to print (0 = no limit)")
	cmd.Flags().BoolVar(&errorsOnly, "errors-only", false, "only ticks with unit failures")
	return cmd
}
