package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/metadata"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	reset := func() {
		cfgFile, seriesName, formatName = "", "", ""
		dryRun, verbose, force, animeMode, deepClean, titleCase, noHistory = false, false, false, false, false, false, false
	}
	reset()
	t.Cleanup(reset)
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	ui.DisableColors()
	ui.SetOutput(&buf, &buf)
	t.Cleanup(func() {
		ui.SetOutput(os.Stdout, os.Stderr)
	})
	return &buf
}

func TestResolveOptions(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		cfg   func(*config.Config)
		check func(*testing.T, runOptions)
	}{
		{
			name: "config defaults",
			check: func(t *testing.T, o runOptions) {
				assert.Equal(t, naming.DefaultFormat, o.format)
				assert.False(t, o.anime)
				assert.True(t, o.history)
			},
		},
		{
			name: "config values used when flags unset",
			cfg: func(c *config.Config) {
				c.Options.Format = string(naming.FormatEpisode)
				c.Options.TitleCase = true
				c.Options.DeepClean = true
			},
			check: func(t *testing.T, o runOptions) {
				assert.Equal(t, naming.FormatEpisode, o.format)
				assert.True(t, o.titleCase)
				assert.True(t, o.deepClean)
			},
		},
		{
			name: "flags override config",
			args: []string{"--format", "SxxExx - Title", "--deep-clean=false", "--force"},
			cfg: func(c *config.Config) {
				c.Options.Format = string(naming.FormatEpisode)
				c.Options.DeepClean = true
			},
			check: func(t *testing.T, o runOptions) {
				assert.Equal(t, naming.FormatEpisodeTitle, o.format)
				assert.False(t, o.deepClean)
				assert.True(t, o.force)
			},
		},
		{
			name: "anime drops titles from default format",
			args: []string{"--anime"},
			check: func(t *testing.T, o runOptions) {
				assert.True(t, o.anime)
				assert.Equal(t, naming.FormatShowEpisode, o.format)
			},
		},
		{
			name: "anime from config keeps explicit format",
			args: []string{"--format", "Show (Year) - SxxExx - Title"},
			cfg: func(c *config.Config) {
				c.Options.Anime = true
			},
			check: func(t *testing.T, o runOptions) {
				assert.True(t, o.anime)
				assert.Equal(t, naming.FormatShowYearEpisodeTitle, o.format)
			},
		},
		{
			name: "no-history disables ledger",
			args: []string{"--no-history"},
			check: func(t *testing.T, o runOptions) {
				assert.False(t, o.history)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			cmd := newRootCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := config.DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}

			opts, err := resolveOptions(cmd, cfg)
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestResolveOptions_BadFormat(t *testing.T) {
	resetGlobals(t)
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--format", "Title Only"}))

	_, err := resolveOptions(cmd, config.DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, naming.ErrUnknownFormat)
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name string
		dry  bool
		res  renamer.Result
		want string
	}{
		{
			name: "already correct",
			res:  renamer.Result{OldPath: "/tv/a.mkv", NewPath: "/tv/a.mkv", Success: true, Skipped: true, Message: renamer.MsgAlreadyCorrect},
			want: "Already correct: a.mkv",
		},
		{
			name: "renamed",
			res:  renamer.Result{OldPath: "/tv/a.mkv", NewPath: "/tv/b.mkv", Success: true, Message: "Renamed"},
			want: "Renamed: a.mkv → b.mkv",
		},
		{
			name: "dry run",
			dry:  true,
			res:  renamer.Result{OldPath: "/tv/a.mkv", NewPath: "/tv/b.mkv", Success: true, Message: "Would rename"},
			want: "[DRY] a.mkv → b.mkv",
		},
		{
			name: "destination exists",
			res:  renamer.Result{OldPath: "/tv/a.mkv", NewPath: "/tv/b.mkv", Skipped: true, Message: "Destination exists: b.mkv"},
			want: "Skipped: a.mkv - Destination exists: b.mkv",
		},
		{
			name: "failure",
			res:  renamer.Result{OldPath: "/tv/a.mkv", NewPath: "/tv/b.mkv", Message: "Rename failed: permission denied"},
			want: "Error: a.mkv - Rename failed: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			dryRun = tt.dry
			buf := captureOutput(t)

			printResult(tt.res)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrintResult_Metadata(t *testing.T) {
	resetGlobals(t)
	buf := captureOutput(t)

	printResult(renamer.Result{
		OldPath:  "/tv/a.mkv",
		NewPath:  "/tv/Show - S01E01.mkv",
		Success:  true,
		Metadata: &metadata.Result{Success: true, Changed: true},
	})
	printResult(renamer.Result{
		OldPath:  "/tv/b.mkv",
		NewPath:  "/tv/Show - S01E02.mkv",
		Success:  true,
		Metadata: &metadata.Result{Message: "mkvpropedit not found"},
	})

	out := buf.String()
	assert.Contains(t, out, "Cleaned metadata: Show - S01E01.mkv")
	assert.Contains(t, out, "Metadata not cleaned: mkvpropedit not found")
}

func TestPrintSummary_DryRun(t *testing.T) {
	resetGlobals(t)
	dryRun = true
	buf := captureOutput(t)

	base := t.TempDir()
	season := filepath.Join(base, "Breaking Bad", "Season 1")
	require.NoError(t, os.MkdirAll(season, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(season, "Breaking.Bad.S01E01.Pilot.720p.mkv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(season, "Breaking.Bad.S01E01.Pilot.720p.srt"), []byte("x"), 0644))

	r := renamer.New(renamer.WithDryRun(true))
	sess, err := r.ProcessDirectory(context.Background(), base)
	require.NoError(t, err)
	require.NoError(t, printSummary(base, sess))

	out := buf.String()
	assert.Contains(t, out, "Total episode files: 1")
	assert.Contains(t, out, "Total subtitle files: 1")
	assert.Contains(t, out, "This was a dry run. To apply changes, run without --dry-run")
	assert.NotContains(t, out, "Renaming complete!")
}

func TestSessionStatus(t *testing.T) {
	undone := time.Now()
	assert.Equal(t, "applied", sessionStatus(history.Session{RenameCount: 3}))
	assert.Equal(t, "empty", sessionStatus(history.Session{}))
	assert.Contains(t, sessionStatus(history.Session{RenameCount: 3, UndoneAt: &undone}), "undone")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "y", plural(1, "y", "ies"))
	assert.Equal(t, "ies", plural(2, "y", "ies"))
}
