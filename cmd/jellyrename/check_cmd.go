package main

import (
	"github.com/Nomadcxx/jellyrename/internal/metadata"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check for the external tools used by --deep-clean",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := metadata.NewCleaner(metadata.ExecRunner{}, nil).CheckTools()

			tbl := ui.NewTable("Tool", "Status", "Used for", "Path")
			for _, s := range statuses {
				status := ui.Success("found")
				if !s.Found {
					status = ui.Error("missing")
				}
				tbl.AddRow(s.Name, status, s.Enables, s.Path)
			}
			tbl.Render()

			if missing := metadata.Missing(statuses); len(missing) > 0 {
				printInstallHint()
			} else {
				ui.SuccessMsg("All metadata tools available")
			}
			return nil
		},
	}
}

// printMissingTools warns before a deep-clean run that some tools are absent.
func printMissingTools() {
	missing := metadata.Missing(metadata.NewCleaner(metadata.ExecRunner{}, nil).CheckTools())
	if len(missing) == 0 {
		return
	}
	ui.WarningMsg("Missing tools: %v", missing)
	printInstallHint()
}

func printInstallHint() {
	ui.InfoMsg("Install with:")
	ui.Line("Ubuntu/Debian: sudo apt install mkvtoolnix ffmpeg mediainfo")
	ui.Line("macOS:         brew install mkvtoolnix ffmpeg mediainfo")
	ui.Line("Arch Linux:    sudo pacman -S mkvtoolnix-cli ffmpeg mediainfo")
}
