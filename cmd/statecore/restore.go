package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/statecore/checkpoint"
)

func restoreCmd(flags *globalFlags) *cobra.Command {
	var (
		id        string
		storeName string
		backend   string
		path      string
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Print a saved checkpoint",
		Long: `Print a saved checkpoint: the latest one for the store name, or the one
saved under --id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			applyRunFlags(cfg, &runOptions{storeName: storeName, checkpoint: backend, path: path})

			cp, closer, err := checkpoint.New(&cfg.Checkpoint)
			if err != nil {
				return fmt.Errorf("failed to open checkpoint store: %w", err)
			}
			defer closer.Close()

			var (
				state AppState
				snap  checkpoint.Snapshot
			)
			if id != "" {
				state, snap, err = checkpoint.Restore[AppState](cmd.Context(), cp, id)
			} else {
				state, snap, err = checkpoint.RestoreLatest[AppState](cmd.Context(), cp, cfg.Store.Name)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", snap.ID)
			fmt.Fprintf(out, "Store:   %s\n", snap.Name)
			fmt.Fprintf(out, "Version: %d\n", snap.Version)
			fmt.Fprintf(out, "Saved:   %s\n", snap.Timestamp.Format("2006-01-02 15:04:05"))
			writeState(out, state)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Snapshot id (default: latest for the store name)")
	cmd.Flags().StringVar(&storeName, "name", "", "Store name (overrides config)")
	cmd.Flags().StringVar(&backend, "checkpoint", "", "Checkpoint backend: memory, file or sqlite (overrides config)")
	cmd.Flags().StringVar(&path, "path", "", "Checkpoint path (overrides config)")

	return cmd
}
