package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"hillbillies.sim/internal/persistence/snapshot"
	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/activity"
)

type unitLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Faction  int     `json:"faction"`
	Cube     [3]int  `json:"cube"`
	HP       float64 `json:"hp"`
	XP       int     `json:"xp"`
	Activity string  `json:"activity"`
	Target   *[3]int `json:"target,omitempty"`
	Progress float64 `json:"progress"`
}

func newSnapshotCommand(rf *rootFlags) *cobra.Command {
	var worldID string
	cmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Summarize a snapshot file (default: latest for --world)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				path = snapshot.Latest(filepath.Join(rf.dataDir, "worlds", worldID, "snapshots"))
				if path == "" {
					return fmt.Errorf("no snapshots for world %s", worldID)
				}
			}
			h, s, err := snapshot.ReadSnapshot(path)
			if err != nil {
				return err
			}
			out := struct {
				Header    snapshot.Header `json:"header"`
				Time      float64         `json:"time"`
				Dims      [3]int          `json:"dims"`
				Units     []unitLine      `json:"units"`
				Materials int             `json:"materials"`
			}{
				Header:    h,
				Time:      s.Time,
				Dims:      [3]int{s.Bounds.NX, s.Bounds.NY, s.Bounds.NZ},
				Units:     unitLines(s.Units),
				Materials: len(s.Materials),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&worldID, "world", "world_1", "world id")
	return cmd
}

func unitLines(us []world.UnitSnapshot) []unitLine {
	out := make([]unitLine, 0, len(us))
	for _, u := range us {
		l := unitLine{
			ID:       u.ID,
			Name:     u.Name,
			Faction:  u.Faction,
			Cube:     u.Cube.ToArray(),
			HP:       u.HP,
			XP:       u.XP,
			Activity: u.Activity.Kind.String(),
			Progress: u.Activity.Progress,
		}
		if k := u.Activity.Kind; k == activity.Move || k == activity.Work {
			t := u.Activity.Target.ToArray()
			l.Target = &t
		}
		out = append(out, l)
	}
	return out
}
