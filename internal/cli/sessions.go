package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/remote"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse committed sessions",
	Long:  `List and inspect sessions stored on the backend.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Long: `List committed sessions, newest first.

Examples:
  liftlog sessions list            # Last 10 sessions
  liftlog sessions list --last 30  # Last 30 sessions`,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with its sets",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsLast int

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)

	sessionsListCmd.Flags().IntVarP(&sessionsLast, "last", "n", 10, "Number of sessions to show")
}

func backendClient() (*remote.Client, error) {
	cfg, err := config.LoadDevice(configPath)
	if err != nil {
		return nil, err
	}
	return remote.NewClient(cfg.Device.BackendURL, cfg.Device.APIKey), nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	client, err := backendClient()
	if err != nil {
		return err
	}
	rows, err := client.ListSessions(context.Background(), sessionsLast)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tNAME\tMINUTES\tSETS\tVOLUME")
	for _, r := range rows {
		minutes, sets, volume := "-", "-", "-"
		if r.DurationMinutes != nil {
			minutes = fmt.Sprint(*r.DurationMinutes)
		}
		if r.TotalSets != nil {
			sets = fmt.Sprint(*r.TotalSets)
		}
		if r.TotalVolume != nil {
			volume = fmt.Sprintf("%.1f", *r.TotalVolume)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Name, minutes, sets, volume)
	}
	return w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	client, err := backendClient()
	if err != nil {
		return err
	}
	detail, err := client.GetSession(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", detail.Session.Name, detail.Session.StartedAt.Local().Format("2006-01-02 15:04"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXERCISE\t#\tWEIGHT\tREPS\tRPE")
	for _, s := range detail.Sets {
		rpe := "-"
		if s.RPE != nil {
			rpe = fmt.Sprint(*s.RPE)
		}
		weight := fmt.Sprintf("%g", s.Weight)
		if s.Weight < 0 {
			weight = "BW"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n", s.ExerciseName, s.Position, weight, s.Reps, rpe)
	}
	return w.Flush()
}
