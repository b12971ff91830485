package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meltforce/liftlog/internal/config"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the saved workout",
	Long:  `Show or clear the workout snapshot kept on this device.`,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved workout as JSON",
	RunE:  runSnapshotShow,
}

var snapshotClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved workout",
	RunE:  runSnapshotClear,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotClearCmd)
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDevice(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(context.Background())
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	out := cmd.OutOrStdout()
	if snap == nil {
		fmt.Fprintln(out, "No saved workout.")
		return nil
	}

	fmt.Fprintf(out, "%s, %s elapsed, saved %s\n", snap.Name,
		time.Duration(snap.ElapsedSeconds)*time.Second, snap.SnapshotAt.Local().Format(time.DateTime))
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func runSnapshotClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDevice(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(context.Background()); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved workout cleared.")
	return nil
}
