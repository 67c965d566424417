// Package metadata strips release-group titles and tags embedded inside
// video containers, using mkvpropedit/mkvmerge for MKV and ffmpeg/mediainfo
// for MP4.
package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/dustin/go-humanize"
)

const (
	ToolMkvpropedit = "mkvpropedit"
	ToolMkvmerge    = "mkvmerge"
	ToolFFmpeg      = "ffmpeg"
	ToolMediainfo   = "mediainfo"
)

const (
	mkvEditTimeout  = 60 * time.Second
	mkvTrackTimeout = 30 * time.Second
	probeTimeout    = 30 * time.Second
	remuxTimeout    = 300 * time.Second
)

var (
	trackIDRegex   = regexp.MustCompile(`Track ID (\d+):`)
	nonAlnumLower  = regexp.MustCompile(`[^a-z0-9]`)
	techIndicators = []string{
		"720p", "1080p", "2160p", "4k",
		"x264", "x265", "hevc", "h264", "h265",
		"web", "webrip", "webdl", "bluray", "hdtv",
		"aac", "ac3", "dts",
	}
)

// Result describes the outcome of cleaning one file.
type Result struct {
	Path    string
	Success bool
	Changed bool
	Message string
}

// Cleaner rewrites container metadata through external tools.
type Cleaner struct {
	runner Runner
	logger *logging.Logger
}

// NewCleaner creates a Cleaner. A nil runner uses ExecRunner and a nil
// logger discards output.
func NewCleaner(runner Runner, logger *logging.Logger) *Cleaner {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Cleaner{runner: runner, logger: logger}
}

// Has reports whether tool is installed.
func (c *Cleaner) Has(tool string) bool {
	_, err := c.runner.LookPath(tool)
	return err == nil
}

// Clean dispatches on the file extension.
func (c *Cleaner) Clean(ctx context.Context, path, title string, dryRun bool) Result {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mkv":
		return c.CleanMKV(ctx, path, title, dryRun)
	case ".mp4", ".m4v":
		return c.CleanMP4(ctx, path, title, dryRun)
	default:
		return Result{
			Path:    path,
			Success: true,
			Message: fmt.Sprintf("Metadata cleaning not supported for %s", ext),
		}
	}
}

// CleanMKV sets the container title, clears global tags and removes every
// track name.
func (c *Cleaner) CleanMKV(ctx context.Context, path, title string, dryRun bool) Result {
	if !c.Has(ToolMkvpropedit) {
		return Result{Path: path, Message: "mkvpropedit not found"}
	}
	if dryRun {
		return Result{Path: path, Success: true, Changed: true, Message: "Would clean MKV metadata"}
	}

	_, stderr, err := c.runner.Run(ctx, mkvEditTimeout, ToolMkvpropedit,
		"--quiet",
		"--edit", "info", "--set", "title="+title,
		"--tags", "all:",
		path,
	)
	if err != nil {
		c.logger.Error("metadata", "mkvpropedit failed", err, logging.F("path", path))
		return Result{Path: path, Message: toolFailure(ToolMkvpropedit, stderr, err)}
	}

	for _, id := range c.mkvTrackIDs(ctx, path) {
		_, _, err := c.runner.Run(ctx, mkvTrackTimeout, ToolMkvpropedit,
			"--quiet", path,
			"--edit", fmt.Sprintf("track:@%d", id),
			"--delete", "name",
		)
		// exit code 2 means the track had no name
		if err != nil && exitCode(err) != 2 {
			c.logger.Debug("metadata", "track name not removed",
				logging.F("path", path), logging.F("track", id), logging.F("error", err.Error()))
		}
	}

	c.logger.Info("metadata", "cleaned mkv metadata", logging.F("path", path), logging.F("title", title))
	return Result{Path: path, Success: true, Changed: true, Message: "Cleaned MKV metadata"}
}

func (c *Cleaner) mkvTrackIDs(ctx context.Context, path string) []int {
	if !c.Has(ToolMkvmerge) {
		return nil
	}

	stdout, _, err := c.runner.Run(ctx, probeTimeout, ToolMkvmerge, "-i", path)
	if err != nil && stdout == "" {
		return nil
	}

	var ids []int
	for _, m := range trackIDRegex.FindAllStringSubmatch(stdout, -1) {
		if id, err := strconv.Atoi(m[1]); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// MP4Title reads the container title with mediainfo. Placeholder values
// such as "N/A" come back empty.
func (c *Cleaner) MP4Title(ctx context.Context, path string) string {
	if !c.Has(ToolMediainfo) {
		return ""
	}

	stdout, _, err := c.runner.Run(ctx, probeTimeout, ToolMediainfo, "--Output=General;%Title%", path)
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(stdout)
	switch strings.ToLower(title) {
	case "n/a", "na", "none", "":
		return ""
	}
	if len(title) >= 2 {
		first, last := title[0], title[len(title)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			title = title[1 : len(title)-1]
		}
	}
	return title
}

// CleanMP4 remuxes the file without metadata when its current title looks
// like a release name.
func (c *Cleaner) CleanMP4(ctx context.Context, path, title string, dryRun bool) Result {
	if !c.Has(ToolFFmpeg) {
		return Result{Path: path, Message: "ffmpeg not found"}
	}

	current := c.MP4Title(ctx, path)
	if !TitleNeedsCleaning(current, title) {
		return Result{Path: path, Success: true, Message: "MP4 metadata already clean"}
	}

	if dryRun {
		return Result{
			Path:    path,
			Success: true,
			Changed: true,
			Message: fmt.Sprintf("Would clean MP4 metadata (current: '%s')", current),
		}
	}

	ext := filepath.Ext(path)
	tmpPath := strings.TrimSuffix(path, ext) + ".tmp" + ext

	start := time.Now()
	_, stderr, err := c.runner.Run(ctx, remuxTimeout, ToolFFmpeg,
		"-hide_banner", "-nostdin", "-v", "error",
		"-i", path,
		"-map", "0",
		"-c", "copy",
		"-map_metadata", "-1",
		"-metadata", "title="+title,
		"-movflags", "use_metadata_tags",
		"-f", "mp4",
		"-y", tmpPath,
	)
	if err != nil {
		os.Remove(tmpPath)
		c.logger.Error("metadata", "ffmpeg remux failed", err, logging.F("path", path))
		return Result{Path: path, Message: toolFailure(ToolFFmpeg, stderr, err)}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Result{Path: path, Message: fmt.Sprintf("File operation error: %v", err)}
	}

	msg := "Cleaned MP4 metadata"
	if info, err := os.Stat(path); err == nil {
		msg = fmt.Sprintf("Cleaned MP4 metadata (%s remuxed)", humanize.Bytes(uint64(info.Size())))
	}
	c.logger.Info("metadata", "cleaned mp4 metadata",
		logging.F("path", path), logging.F("previous_title", current), logging.F("duration", time.Since(start).String()))

	return Result{Path: path, Success: true, Changed: true, Message: msg}
}

// TitleNeedsCleaning reports whether an embedded title carries technical
// metadata or differs from the clean title.
func TitleNeedsCleaning(current, clean string) bool {
	if current == "" || current == clean {
		return false
	}

	normCurrent := nonAlnumLower.ReplaceAllString(strings.ToLower(current), "")
	normClean := nonAlnumLower.ReplaceAllString(strings.ToLower(clean), "")

	for _, indicator := range techIndicators {
		if strings.Contains(normCurrent, indicator) {
			return true
		}
	}

	return normCurrent != normClean && !strings.HasPrefix(normClean, normCurrent)
}

func toolFailure(tool, stderr string, err error) string {
	switch {
	case isTimeout(err):
		return tool + " timed out"
	case exitCode(err) >= 0:
		return fmt.Sprintf("%s failed: %s", tool, strings.TrimSpace(stderr))
	default:
		return fmt.Sprintf("%s error: %v", tool, err)
	}
}
