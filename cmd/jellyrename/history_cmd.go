package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded rename sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := db.RecentSessions(limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				ui.InfoMsg("No rename sessions recorded yet")
				return nil
			}

			tbl := ui.NewTable("ID", "Started", "Series", "Directory", "Renames", "Status")
			tbl.SetMaxWidth(48)
			for _, s := range sessions {
				tbl.AddRow(
					strconv.FormatInt(s.ID, 10),
					ui.FormatAgo(s.StartedAt),
					s.SeriesName,
					s.BaseDir,
					ui.FormatCount(s.RenameCount),
					sessionStatus(s),
				)
			}
			tbl.Render()

			stats, err := db.GetStats()
			if err == nil {
				fmt.Println()
				ui.InfoMsg("%s sessions, %s renames, %s undone",
					ui.FormatCount(stats.Sessions), ui.FormatCount(stats.Renames), ui.FormatCount(stats.Undone))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of sessions to show")
	return cmd
}

func sessionStatus(s history.Session) string {
	switch {
	case s.Undone():
		return "undone " + ui.FormatAgo(*s.UndoneAt)
	case s.RenameCount == 0:
		return "empty"
	default:
		return "applied"
	}
}

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo [session-id]",
		Short: "Revert a rename session (default: the most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) > 0 {
				n, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid session id %q", args[0])
				}
				id = n
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			logger := newLogger(cfg, false)
			defer logger.Close()

			sess, results, err := renamer.Undo(db, id, dryRun)
			if errors.Is(err, history.ErrNoSession) && results == nil {
				ui.WarningMsg("Nothing to undo")
				return err
			}

			if sess.ID != 0 {
				ui.InfoMsg("Session %d: %s (%s)", sess.ID, ui.Path(sess.BaseDir), ui.FormatAgo(sess.StartedAt))
			}
			for _, res := range results {
				from, to := filepath.Base(res.OldPath), filepath.Base(res.NewPath)
				switch {
				case res.Skipped && res.Success:
					ui.Line("%s", ui.Dim("Already restored: "+to))
				case res.Success && dryRun:
					ui.Line("%s", ui.Warning(fmt.Sprintf("[DRY] %s → %s", from, to)))
				case res.Success:
					ui.Line("%s", ui.Success(fmt.Sprintf("Restored: %s → %s", from, to)))
				default:
					ui.Line("%s", ui.Error(fmt.Sprintf("Error: %s - %s", from, res.Message)))
				}
			}

			if err != nil {
				logger.Error("undo", "undo failed", err)
				if errors.Is(err, renamer.ErrIncompleteUndo) {
					ui.WarningMsg("Some files could not be restored; fix the errors above and run undo again")
				}
				return err
			}

			if dryRun {
				ui.WarningMsg("This was a dry run. To apply changes, run without --dry-run")
				return nil
			}
			logger.Info("undo", "session reverted")
			ui.SuccessMsg("Restored %d files", len(results))
			return nil
		},
	}
}
