package renamer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0644))
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.NoError(t, err, "expected %s to exist", path)
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected %s to be gone", path)
}

func showDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Breaking Bad (2008)")
	require.NoError(t, os.MkdirAll(dir, 0755))
	return dir
}

func TestSafeRename(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing source", func(t *testing.T) {
		res := SafeRename(filepath.Join(dir, "nope.mkv"), filepath.Join(dir, "x.mkv"), false, false)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "Source doesn't exist")
	})

	t.Run("already correct", func(t *testing.T) {
		p := filepath.Join(dir, "same.mkv")
		touch(t, p)
		res := SafeRename(p, p, false, false)
		assert.True(t, res.AlreadyCorrect())
		assert.False(t, res.Renamed())
	})

	t.Run("collision without force", func(t *testing.T) {
		src, dst := filepath.Join(dir, "c1.mkv"), filepath.Join(dir, "c2.mkv")
		touch(t, src)
		touch(t, dst)
		res := SafeRename(src, dst, false, false)
		assert.False(t, res.Success)
		assert.True(t, res.Skipped)
		assert.Equal(t, "Destination exists: c2.mkv", res.Message)
		assertExists(t, src)
	})

	t.Run("collision with force", func(t *testing.T) {
		src, dst := filepath.Join(dir, "f1.mkv"), filepath.Join(dir, "f2.mkv")
		touch(t, src)
		touch(t, dst)
		res := SafeRename(src, dst, false, true)
		assert.True(t, res.Renamed())
		assertMissing(t, src)
		data, _ := os.ReadFile(dst)
		assert.Equal(t, "f1.mkv", string(data))
	})

	t.Run("dry run", func(t *testing.T) {
		src, dst := filepath.Join(dir, "d1.mkv"), filepath.Join(dir, "d2.mkv")
		touch(t, src)
		res := SafeRename(src, dst, true, false)
		assert.True(t, res.Renamed())
		assert.Equal(t, "Would rename", res.Message)
		assertExists(t, src)
		assertMissing(t, dst)
	})

	t.Run("case only", func(t *testing.T) {
		src, dst := filepath.Join(dir, "show.s01e01.mkv"), filepath.Join(dir, "Show.S01E01.mkv")
		touch(t, src)
		res := SafeRename(src, dst, false, false)
		require.True(t, res.Renamed(), res.Message)
		assertExists(t, dst)
		assertMissing(t, dst+".__tmp__")
	})

	t.Run("read only source", func(t *testing.T) {
		src, dst := filepath.Join(dir, "ro.mkv"), filepath.Join(dir, "rw.mkv")
		touch(t, src)
		require.NoError(t, os.Chmod(src, 0444))
		res := SafeRename(src, dst, false, false)
		require.True(t, res.Renamed(), res.Message)
		info, err := os.Stat(dst)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode().Perm()&0200)
	})
}

func TestRenameCompanions(t *testing.T) {
	dir := t.TempDir()
	oldVideo := filepath.Join(dir, "show.s01e01.mkv")
	newVideo := filepath.Join(dir, "Show - S01E01.mkv")

	for _, name := range []string{
		"show.s01e01.mkv",
		"show.s01e01.en.srt",
		"show.s01e01.forced.en.ass",
		"show.s01e01.nfo",
		"show.s01e01-thumb.jpg",
		"show.s01e01.mkv.part",
		"other.srt",
	} {
		touch(t, filepath.Join(dir, name))
	}

	results := RenameCompanions(oldVideo, newVideo, false)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Renamed(), r.Message)
	}

	assertExists(t, filepath.Join(dir, "Show - S01E01.en.srt"))
	assertExists(t, filepath.Join(dir, "Show - S01E01.forced.en.ass"))
	assertExists(t, filepath.Join(dir, "Show - S01E01.nfo"))
	assertExists(t, filepath.Join(dir, "Show - S01E01-thumb.jpg"))
	assertExists(t, filepath.Join(dir, "show.s01e01.mkv.part"))
	assertExists(t, filepath.Join(dir, "other.srt"))
	assertExists(t, oldVideo)
}

func TestFindVideoFiles_EpisodeOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Show.S01E10.mkv",
		"Show.S01E02.MKV",
		"extras.mkv",
		"Show.S02E01.mp4",
		"Show.S01E01.Mkv",
		"notes.txt",
		"Show.S01E01.en.srt",
	} {
		touch(t, filepath.Join(dir, name))
	}

	files, err := FindVideoFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{
		"Show.S01E01.Mkv",
		"Show.S01E02.MKV",
		"Show.S01E10.mkv",
		"Show.S02E01.mp4",
		"extras.mkv",
	}, names)

	subs, err := FindSubtitleFiles(dir)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestFindVideoFiles_MissingDir(t *testing.T) {
	_, err := FindVideoFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestProcessDirectory_WithTitles(t *testing.T) {
	dir := showDir(t)
	touch(t, filepath.Join(dir, "Breaking.Bad.S01E01.Pilot.720p.WEB-DL.x264-GROUP.mkv"))
	touch(t, filepath.Join(dir, "Breaking.Bad.S01E01.Pilot.720p.WEB-DL.x264-GROUP.en.srt"))

	var seen []Result
	r := New(WithOnResult(func(res Result) { seen = append(seen, res) }))

	sess, err := r.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad (2008)", sess.SeriesName)
	require.Len(t, seen, 1)
	assert.Equal(t, "Pilot", seen[0].Title)

	assertExists(t, filepath.Join(dir, "Breaking Bad - S01E01 - Pilot.mkv"))
	assertExists(t, filepath.Join(dir, "Breaking Bad - S01E01 - Pilot.en.srt"))

	sum := sess.Summary()
	assert.Equal(t, 1, sum.Renamed)
	assert.Equal(t, 1, sum.Companions)
}

func TestProcessDirectory_DryRunTouchesNothing(t *testing.T) {
	dir := showDir(t)
	src := filepath.Join(dir, "bb.s01e03.mkv")
	touch(t, src)

	db, err := history.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	r := New(WithDryRun(true), WithFormat(naming.FormatEpisode), WithHistory(db))
	sess, err := r.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, sess.Results, 1)
	assert.True(t, sess.Results[0].Renamed())
	assert.Equal(t, filepath.Join(dir, "S01E03.mkv"), sess.Results[0].NewPath)
	assertExists(t, src)
	assert.Zero(t, sess.HistoryID())

	_, err = db.LastSession()
	assert.ErrorIs(t, err, history.ErrNoSession)
}

func TestProcessFile_Unparseable(t *testing.T) {
	dir := showDir(t)
	src := filepath.Join(dir, "behind the scenes.mkv")
	touch(t, src)

	r := New()
	res := r.ProcessFile(context.Background(), r.NewSession(dir), src)
	assert.False(t, res.Success)
	assert.Equal(t, "Could not extract episode info from: behind the scenes.mkv", res.Message)
	assertExists(t, src)
}

func TestProcessFile_SpecialsFolder(t *testing.T) {
	dir := showDir(t)
	specials := filepath.Join(dir, "Specials")
	src := filepath.Join(specials, "bb.s01e02.mkv")
	touch(t, src)

	r := New(WithFormat(naming.FormatShowEpisode))
	sess := r.NewSession(specials)
	assert.Equal(t, "Breaking Bad (2008)", sess.SeriesName)

	res := r.ProcessFile(context.Background(), sess, src)
	require.True(t, res.Renamed(), res.Message)
	assert.Equal(t, filepath.Join(specials, "Breaking Bad - S00E02.mkv"), res.NewPath)
}

func TestProcessFile_SeriesOverride(t *testing.T) {
	dir := showDir(t)
	src := filepath.Join(dir, "bb.s01e02.mkv")
	touch(t, src)

	r := New(WithSeriesName("  Custom Name  "), WithFormat(naming.FormatShowYearEpisode))
	sess := r.NewSession(dir)
	assert.Equal(t, "Custom Name", sess.SeriesName)

	res := r.ProcessFile(context.Background(), sess, src)
	require.True(t, res.Renamed(), res.Message)
	assert.Equal(t, "Custom Name - S01E02.mkv", filepath.Base(res.NewPath))
}

func TestEffectiveFormat(t *testing.T) {
	assert.Equal(t, naming.FormatShowEpisode, EffectiveFormat(naming.FormatShowEpisodeTitle, true))
	assert.Equal(t, naming.FormatShowEpisodeTitle, EffectiveFormat(naming.FormatShowEpisodeTitle, false))
	assert.Equal(t, naming.FormatEpisodeTitle, EffectiveFormat(naming.FormatEpisodeTitle, true))
}

func TestUndo(t *testing.T) {
	dir := showDir(t)
	for _, name := range []string{"bb.s01e01.mkv", "bb.s01e01.en.srt", "bb.s01e02.mkv"} {
		touch(t, filepath.Join(dir, name))
	}

	db, err := history.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	r := New(WithFormat(naming.FormatEpisode), WithHistory(db))
	sess, err := r.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.NotZero(t, sess.HistoryID())

	assertExists(t, filepath.Join(dir, "S01E01.mkv"))
	assertExists(t, filepath.Join(dir, "S01E01.en.srt"))
	assertExists(t, filepath.Join(dir, "S01E02.mkv"))

	// dry run reports but does not move
	_, results, err := Undo(db, 0, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assertExists(t, filepath.Join(dir, "S01E01.mkv"))

	undone, results, err := Undo(db, 0, false)
	require.NoError(t, err)
	assert.Equal(t, sess.HistoryID(), undone.ID)
	assert.Len(t, results, 3)

	assertExists(t, filepath.Join(dir, "bb.s01e01.mkv"))
	assertExists(t, filepath.Join(dir, "bb.s01e01.en.srt"))
	assertExists(t, filepath.Join(dir, "bb.s01e02.mkv"))
	assertMissing(t, filepath.Join(dir, "S01E01.mkv"))

	_, _, err = Undo(db, 0, false)
	assert.ErrorIs(t, err, history.ErrNoSession)

	_, _, err = Undo(db, sess.HistoryID(), false)
	assert.ErrorIs(t, err, history.ErrNoSession)
}

func TestUndo_Incomplete(t *testing.T) {
	dir := showDir(t)
	touch(t, filepath.Join(dir, "bb.s01e01.mkv"))

	db, err := history.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	r := New(WithFormat(naming.FormatEpisode), WithHistory(db))
	sess, err := r.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "S01E01.mkv")))

	_, _, err = Undo(db, sess.HistoryID(), false)
	assert.ErrorIs(t, err, ErrIncompleteUndo)

	still, err := db.GetSession(sess.HistoryID())
	require.NoError(t, err)
	assert.False(t, still.Undone())
}

func TestWatchHandler(t *testing.T) {
	dir := showDir(t)
	first := filepath.Join(dir, "bb.s01e01.mkv")
	bad := filepath.Join(dir, "trailer.mkv")
	touch(t, first)
	touch(t, bad)

	h := NewWatchHandler(context.Background(), New(WithFormat(naming.FormatEpisode)), nil)
	assert.True(t, h.IsMediaFile(first))
	assert.False(t, h.IsMediaFile(filepath.Join(dir, "x.srt")))

	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: first}))
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: bad}))
	// the create event caused by our own rename is dropped once
	renamed := filepath.Join(dir, "S01E01.mkv")
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: renamed}))
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventWrite, Path: renamed}))
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventDelete, Path: first}))

	assert.Equal(t, WatchStats{Processed: 3, Renamed: 1, Failed: 1, Skipped: 1}, h.Stats())
	assertExists(t, filepath.Join(dir, "S01E01.mkv"))
}

func TestWatchHandler_KeepsTitleAfterOwnRename(t *testing.T) {
	dir := showDir(t)

	db, err := history.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	h := NewWatchHandler(context.Background(), New(WithHistory(db)), nil)
	w, err := watcher.NewWatcher(h, watcher.WithSettleDelay(200*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Watch([]string{dir}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	touch(t, filepath.Join(dir, "Breaking.Bad.S01E01.Pilot.720p.WEB-DL.x264-GROUP.mkv"))
	want := filepath.Join(dir, "Breaking Bad - S01E01 - Pilot.mkv")

	require.Eventually(t, func() bool {
		_, err := os.Stat(want)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// long enough for the rename's own create event to settle and fire
	time.Sleep(800 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, w.Close())

	assertExists(t, want)
	assertMissing(t, filepath.Join(dir, "Breaking Bad - S01E01.mkv"))
	assert.Equal(t, WatchStats{Processed: 1, Renamed: 1}, h.Stats())

	last, err := db.LastSession()
	require.NoError(t, err)
	renames, err := db.SessionRenames(last.ID)
	require.NoError(t, err)
	assert.Len(t, renames, 1)
}

func TestWatchHandler_DoesNotRetainResults(t *testing.T) {
	dir := showDir(t)
	path := filepath.Join(dir, "bb.s01e01.mkv")
	touch(t, path)

	h := NewWatchHandler(context.Background(), New(WithFormat(naming.FormatEpisode)), nil)
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: path}))

	sess := h.sessions[dir]
	require.NotNil(t, sess)
	assert.Empty(t, sess.Results)
}

func TestUndo_RetryAfterPartialFailure(t *testing.T) {
	dir := showDir(t)
	touch(t, filepath.Join(dir, "bb.s01e01.mkv"))
	touch(t, filepath.Join(dir, "bb.s01e02.mkv"))

	db, err := history.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	r := New(WithFormat(naming.FormatEpisode), WithHistory(db))
	sess, err := r.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	blocker := filepath.Join(dir, "bb.s01e01.mkv")
	touch(t, blocker)

	_, _, err = Undo(db, 0, false)
	require.ErrorIs(t, err, ErrIncompleteUndo)
	assertExists(t, filepath.Join(dir, "bb.s01e02.mkv"))
	assertExists(t, filepath.Join(dir, "S01E01.mkv"))

	require.NoError(t, os.Remove(blocker))

	undone, results, err := Undo(db, 0, false)
	require.NoError(t, err)
	assert.Equal(t, sess.HistoryID(), undone.ID)
	require.Len(t, results, 2)

	var restored, skipped int
	for _, res := range results {
		require.True(t, res.Success, res.Message)
		if res.Skipped {
			assert.Equal(t, MsgAlreadyRestored, res.Message)
			skipped++
		} else {
			restored++
		}
	}
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, skipped)

	assertExists(t, filepath.Join(dir, "bb.s01e01.mkv"))
	assertExists(t, filepath.Join(dir, "bb.s01e02.mkv"))

	marked, err := db.GetSession(sess.HistoryID())
	require.NoError(t, err)
	assert.True(t, marked.Undone())
}

func TestRenameCompanions_EpisodeNumberBoundary(t *testing.T) {
	dir := t.TempDir()
	ep1 := filepath.Join(dir, "ep1.mkv")
	for _, name := range []string{"ep1.mkv", "ep1.srt", "ep10.mkv", "ep10.srt", "ep10.en.srt"} {
		touch(t, filepath.Join(dir, name))
	}

	results := RenameCompanions(ep1, filepath.Join(dir, "S01E01.mkv"), false)
	require.Len(t, results, 1)

	assertExists(t, filepath.Join(dir, "S01E01.srt"))
	assertExists(t, filepath.Join(dir, "ep10.srt"))
	assertExists(t, filepath.Join(dir, "ep10.en.srt"))
	assertMissing(t, filepath.Join(dir, "S01E010.srt"))
}
