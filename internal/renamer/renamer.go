// Package renamer applies the naming rules to files on disk: it discovers
// episodes, renames them and their sidecars, and records what it did.
package renamer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/metadata"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/permissions"
)

// Renamer holds the options shared by every session.
type Renamer struct {
	dryRun     bool
	force      bool
	animeMode  bool
	deepClean  bool
	titleCase  bool
	format     naming.OutputFormat
	seriesName string
	policy     permissions.Policy

	history  *history.DB
	cleaner  *metadata.Cleaner
	logger   *logging.Logger
	verbose  func(format string, args ...interface{})
	onResult func(Result)
}

// Option configures a Renamer.
type Option func(*Renamer)

// New creates a Renamer with the default output format.
func New(options ...Option) *Renamer {
	r := &Renamer{
		format: naming.DefaultFormat,
		policy: permissions.NoChange,
		logger: logging.Nop(),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// WithDryRun reports what would change without touching files
func WithDryRun(dryRun bool) Option {
	return func(r *Renamer) {
		r.dryRun = dryRun
	}
}

// WithForce overwrites existing destinations
func WithForce(force bool) Option {
	return func(r *Renamer) {
		r.force = force
	}
}

// WithAnimeMode enables absolute "Show - 12" episode numbering
func WithAnimeMode(anime bool) Option {
	return func(r *Renamer) {
		r.animeMode = anime
	}
}

// WithDeepClean rewrites container metadata after each rename
func WithDeepClean(deepClean bool) Option {
	return func(r *Renamer) {
		r.deepClean = deepClean
	}
}

func WithTitleCase(titleCase bool) Option {
	return func(r *Renamer) {
		r.titleCase = titleCase
	}
}

// WithFormat sets the output filename format
func WithFormat(format naming.OutputFormat) Option {
	return func(r *Renamer) {
		r.format = format
	}
}

// WithSeriesName overrides series name detection
func WithSeriesName(name string) Option {
	return func(r *Renamer) {
		r.seriesName = strings.TrimSpace(name)
	}
}

func WithPermissions(p permissions.Policy) Option {
	return func(r *Renamer) {
		r.policy = p
	}
}

// WithHistory records real renames so they can be undone
func WithHistory(db *history.DB) Option {
	return func(r *Renamer) {
		r.history = db
	}
}

func WithCleaner(c *metadata.Cleaner) Option {
	return func(r *Renamer) {
		r.cleaner = c
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Renamer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithVerbose receives step-by-step progress messages
func WithVerbose(fn func(format string, args ...interface{})) Option {
	return func(r *Renamer) {
		r.verbose = fn
	}
}

// WithOnResult is called as soon as each video has been processed
func WithOnResult(fn func(Result)) Option {
	return func(r *Renamer) {
		r.onResult = fn
	}
}

// EffectiveFormat applies the anime rule: the default titled format drops
// the title, since fansub names rarely carry one.
func EffectiveFormat(format naming.OutputFormat, animeMode bool) naming.OutputFormat {
	if animeMode && format == naming.FormatShowEpisodeTitle {
		return naming.FormatShowEpisode
	}
	return format
}

// Format returns the output format in use.
func (r *Renamer) Format() naming.OutputFormat {
	return r.format
}

// DryRun reports whether the renamer only simulates.
func (r *Renamer) DryRun() bool {
	return r.dryRun
}

func (r *Renamer) debugf(format string, args ...interface{}) {
	if r.verbose != nil {
		r.verbose(format, args...)
	}
}

// Session tracks state across one directory run.
type Session struct {
	BaseDir    string
	SeriesName string
	Seen       naming.SeenTitles
	Results    []Result

	historyID int64
	// long-lived watch sessions keep only Seen and historyID
	discardResults bool
}

// NewSession starts a session rooted at baseDir.
func (r *Renamer) NewSession(baseDir string) *Session {
	s := &Session{
		BaseDir: baseDir,
		Seen:    make(naming.SeenTitles),
	}

	if r.seriesName != "" {
		s.SeriesName = r.seriesName
		r.debugf("Using provided series name: '%s'", s.SeriesName)
	} else {
		s.SeriesName = naming.DetectSeriesName(baseDir)
		r.debugf("Auto-detected series name: '%s'", s.SeriesName)
	}

	return s
}

// ProcessFile renames one video file within the session.
func (r *Renamer) ProcessFile(ctx context.Context, s *Session, path string) Result {
	filename := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")

	r.debugf("Processing file: %s", filename)

	info, ok := naming.GetSeasonEpisode(filename, r.animeMode)
	if !ok {
		r.debugf("Could not extract episode info")
		res := Result{
			OldPath: path,
			NewPath: path,
			Message: fmt.Sprintf("Could not extract episode info from: %s", filename),
		}
		r.finish(s, res)
		return res
	}
	r.debugf("Extracted season/episode: %s", info.FormatCode())

	if naming.IsSpecialsFolder(filepath.Base(filepath.Dir(path))) {
		info = naming.EpisodeInfo{Season: 0, Episode: info.Episode}
		r.debugf("Specials folder detected, using Season 00")
	}

	title := naming.EpisodeTitle(filename, info, s.SeriesName, s.Seen)
	if title != "" && r.titleCase {
		title = naming.TitleCase(title)
	}
	if title != "" {
		r.debugf("Extracted episode title: '%s'", title)
	} else {
		r.debugf("No episode title extracted")
	}

	newName := naming.BuildFilename(info, title, ext, s.SeriesName, r.format, s.BaseDir)
	newPath := filepath.Join(filepath.Dir(path), newName)
	r.debugf("Formatted filename: '%s'", newName)

	res := SafeRename(path, newPath, r.dryRun, r.force)
	res.Title = title

	if res.Success {
		res.Companions = RenameCompanions(path, newPath, r.dryRun)
		for _, c := range res.Companions {
			if !c.Renamed() {
				continue
			}
			if r.dryRun {
				r.debugf("[DRY] Would rename sidecar: %s → %s", filepath.Base(c.OldPath), filepath.Base(c.NewPath))
			} else {
				r.debugf("Renamed sidecar: %s → %s", filepath.Base(c.OldPath), filepath.Base(c.NewPath))
			}
		}
	}

	if res.Renamed() && !r.dryRun {
		r.afterRename(ctx, s, &res)
	}

	r.finish(s, res)
	return res
}

func (r *Renamer) afterRename(ctx context.Context, s *Session, res *Result) {
	r.logger.Info("renamer", "renamed",
		logging.F("from", res.OldPath), logging.F("to", res.NewPath), logging.F("companions", len(res.Companions)))

	if !r.policy.IsZero() {
		if err := permissions.Apply(res.NewPath, r.policy); err != nil {
			r.logger.Warn("renamer", "could not apply permissions", logging.F("path", res.NewPath), logging.F("error", err.Error()))
		}
	}

	r.record(s, *res)

	if r.deepClean && r.cleaner != nil {
		stem := strings.TrimSuffix(filepath.Base(res.NewPath), filepath.Ext(res.NewPath))
		meta := r.cleaner.Clean(ctx, res.NewPath, stem, false)
		res.Metadata = &meta
		if !meta.Success {
			r.logger.Warn("renamer", "metadata clean failed", logging.F("path", res.NewPath), logging.F("reason", meta.Message))
		}
	}
}

func (r *Renamer) record(s *Session, res Result) {
	if r.history == nil {
		return
	}

	if s.historyID == 0 {
		id, err := r.history.BeginSession(s.BaseDir, s.SeriesName, string(r.format), false)
		if err != nil {
			r.logger.Error("renamer", "could not start history session", err)
			return
		}
		s.historyID = id
	}

	if err := r.history.RecordRename(s.historyID, res.OldPath, res.NewPath, history.KindVideo); err != nil {
		r.logger.Error("renamer", "could not record rename", err, logging.F("path", res.NewPath))
	}
	for _, c := range res.Companions {
		if !c.Renamed() {
			continue
		}
		if err := r.history.RecordRename(s.historyID, c.OldPath, c.NewPath, history.KindCompanion); err != nil {
			r.logger.Error("renamer", "could not record rename", err, logging.F("path", c.NewPath))
		}
	}
}

func (r *Renamer) finish(s *Session, res Result) {
	if !s.discardResults {
		s.Results = append(s.Results, res)
	}
	if r.onResult != nil {
		r.onResult(res)
	}
}

// HistoryID returns the ledger session ID, or 0 when nothing was recorded.
func (s *Session) HistoryID() int64 {
	return s.historyID
}

// ProcessDirectory renames every video below baseDir in episode order.
func (r *Renamer) ProcessDirectory(ctx context.Context, baseDir string) (*Session, error) {
	s := r.NewSession(baseDir)

	files, err := FindVideoFiles(baseDir)
	if err != nil {
		return s, fmt.Errorf("unable to scan %s: %w", baseDir, err)
	}

	r.logger.Info("renamer", "processing directory",
		logging.F("path", baseDir), logging.F("series", s.SeriesName), logging.F("files", len(files)), logging.F("dry_run", r.dryRun))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		r.ProcessFile(ctx, s, path)
	}

	return s, nil
}

// Summary counts a session's outcomes.
type Summary struct {
	Renamed        int
	AlreadyCorrect int
	Skipped        int
	Failed         int
	Companions     int
	Cleaned        int
}

// Summary tallies the session's results.
func (s *Session) Summary() Summary {
	var sum Summary
	for _, res := range s.Results {
		switch {
		case res.AlreadyCorrect():
			sum.AlreadyCorrect++
		case res.Renamed():
			sum.Renamed++
		case res.Skipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
		for _, c := range res.Companions {
			if c.Renamed() {
				sum.Companions++
			}
		}
		if res.Metadata != nil && res.Metadata.Changed {
			sum.Cleaned++
		}
	}
	return sum
}
