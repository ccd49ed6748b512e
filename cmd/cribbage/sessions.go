package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/cribbage/persistence"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved games",
	Long:  `List, inspect, and remove the games saved by the configured snapshot store.`,
}

var sessionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store persistence.Store) error {
			return listSessions(ctx, cmd.OutOrStdout(), store)
		})
	},
}

var sessionsInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a saved game as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store persistence.Store) error {
			return inspectSession(ctx, cmd.OutOrStdout(), store, args[0])
		})
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more saved games",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store persistence.Store) error {
			return removeSessions(ctx, cmd.OutOrStdout(), store, args...)
		})
	},
}

func init() {
	sessionsCmd.PersistentFlags().String("snapshot", "", "Snapshot backend: file, redis or memory")
	sessionsCmd.AddCommand(sessionsLsCmd, sessionsInspectCmd, sessionsRmCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func withStore(cmd *cobra.Command, f func(context.Context, persistence.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return errors.New("no snapshot backend configured")
	}
	return f(cmd.Context(), store)
}

func listSessions(ctx context.Context, out io.Writer, store persistence.Store) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No saved games found.")
		return nil
	}
	data := pterm.TableData{{"Session", "Seat", "Opponent", "Round", "Phase", "Score", "Saved"}}
	for _, id := range ids {
		snap, err := store.Load(ctx, id)
		if errors.Is(err, persistence.ErrSnapshotNotFound) || errors.Is(err, persistence.ErrSnapshotStale) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading session %s: %w", id, err)
		}
		g := snap.Game
		data = append(data, []string{
			snap.SessionID,
			snap.LocalSeat.String(),
			snap.Opponent,
			strconv.Itoa(g.Round.Number),
			g.Phase.String(),
			fmt.Sprintf("%d-%d", g.Scores[snap.LocalSeat], g.Scores[snap.LocalSeat.Other()]),
			snap.SavedAt.Format(time.DateTime),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}

func inspectSession(ctx context.Context, out io.Writer, store persistence.Store, id string) error {
	snap, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("loading session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func removeSessions(ctx context.Context, out io.Writer, store persistence.Store, ids ...string) error {
	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
