package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configDir  string
	tuningPath string
	dataDir    string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "hillbillies",
		Short: "Hillbillies world simulation",
		Long: `Runs a voxel world of units that move, dig, fight and rest on terrain that
collapses when it loses its connection to the world border.

Examples:
  hillbillies serve --scenario configs/scenarios/quarry.json
  hillbillies simulate --scenario configs/scenarios/quarry.json --ticks 200
  hillbillies ticks --world-dir data/worlds/world_1 --errors-only`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&f.configDir, "configs", "./configs", "config directory")
	root.PersistentFlags().StringVar(&f.tuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	root.PersistentFlags().StringVar(&f.dataDir, "data", "./data", "runtime data directory")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "log world internals")

	root.AddCommand(newServeCommand(f))
	root.AddCommand(newSimulateCommand(f))
	root.AddCommand(newTicksCommand(f))
	root.AddCommand(newSnapshotCommand(f))
	return root
}

func newLogger(prefix string) *log.Logger {
	return log.New(os.Stdout, "["+prefix+"] ", log.LstdFlags|log.Lmicroseconds)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
