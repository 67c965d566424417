package main

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
)

//go:embed assets/header.txt
var asciiHeader string

// printHeader displays the ASCII header with version info
func printHeader(version string) {
	fmt.Println(asciiHeader)
	fmt.Printf("Version: %s\n\n", version)
}

func printRunHeader(basePath string, opts runOptions) {
	ui.InfoMsg("Base path: %s", ui.Path(basePath))
	ui.InfoMsg("Output format: %s", opts.format)
	if seriesName != "" {
		ui.InfoMsg("Series name: %s", seriesName)
	}
	if dryRun {
		ui.WarningMsg("DRY RUN MODE - No changes will be made")
	}
	if verbose {
		ui.InfoMsg("VERBOSE MODE - Detailed output enabled")
	}
	if opts.force {
		ui.WarningMsg("FORCE MODE - Will overwrite existing files")
	}
	if opts.deepClean {
		ui.Line("%s", ui.Accent("DEEP CLEAN MODE - Will clean container metadata"))
		printMissingTools()
	}
	fmt.Println()
}

// printResult reports one processed video as soon as it is done.
func printResult(res renamer.Result) {
	oldName := filepath.Base(res.OldPath)
	newName := filepath.Base(res.NewPath)

	switch {
	case res.AlreadyCorrect():
		ui.Line("%s", ui.Success("Already correct: "+newName))
	case res.Renamed() && dryRun:
		ui.Line("%s", ui.Warning(fmt.Sprintf("[DRY] %s → %s", oldName, newName)))
	case res.Renamed():
		ui.Line("%s", ui.Success(fmt.Sprintf("Renamed: %s → %s", oldName, newName)))
	case res.Skipped:
		ui.Line("%s", ui.Warning(fmt.Sprintf("Skipped: %s - %s", oldName, res.Message)))
	default:
		ui.Line("%s", ui.Error(fmt.Sprintf("Error: %s - %s", oldName, res.Message)))
	}

	if res.Metadata != nil {
		switch {
		case res.Metadata.Changed:
			ui.Line("  %s", ui.Success("Cleaned metadata: "+newName))
		case !res.Metadata.Success:
			ui.Line("  %s", ui.Warning("Metadata not cleaned: "+res.Metadata.Message))
		}
	}
}

func printSummary(basePath string, sess *renamer.Session) error {
	videos, err := renamer.FindVideoFiles(basePath)
	if err != nil {
		return err
	}
	subtitles, err := renamer.FindSubtitleFiles(basePath)
	if err != nil {
		return err
	}

	sum := sess.Summary()

	ui.Section("Summary")
	ui.SuccessMsg("Total episode files: %s", ui.FormatCount(len(videos)))
	if len(subtitles) > 0 {
		ui.SuccessMsg("Total subtitle files: %s", ui.FormatCount(len(subtitles)))
	}

	tbl := ui.NewTable("Renamed", "Already correct", "Skipped", "Errors", "Sidecars")
	tbl.AddRow(
		ui.FormatCount(sum.Renamed),
		ui.FormatCount(sum.AlreadyCorrect),
		ui.FormatCount(sum.Skipped),
		ui.FormatCount(sum.Failed),
		ui.FormatCount(sum.Companions),
	)
	tbl.Render()

	fmt.Println()
	if dryRun {
		ui.WarningMsg("This was a dry run. To apply changes, run without --dry-run")
		ui.WarningMsg("Review the proposed changes above before proceeding.")
		return nil
	}

	ui.SuccessMsg("Renaming complete!")
	if id := sess.HistoryID(); id != 0 {
		ui.InfoMsg("Recorded as session %d. Run 'jellyrename undo' to revert.", id)
	}
	return nil
}
