package renamer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/naming"
)

// VideoExtensions are the files the renamer processes.
var VideoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".ts": true, ".m2ts": true,
}

// SubtitleExtensions are counted in the run summary.
var SubtitleExtensions = map[string]bool{
	".srt": true, ".sub": true, ".ass": true, ".ssa": true, ".vtt": true,
}

// IsVideoFile reports whether path has a video extension.
func IsVideoFile(path string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(path))]
}

// FindVideoFiles walks dir and returns every video file in episode order.
func FindVideoFiles(dir string) ([]string, error) {
	return findFiles(dir, VideoExtensions)
}

// FindSubtitleFiles walks dir and returns every subtitle file in episode order.
func FindSubtitleFiles(dir string) ([]string, error) {
	return findFiles(dir, SubtitleExtensions)
}

func findFiles(dir string, exts map[string]bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// unreadable subdirectories are skipped
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if exts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	SortEpisodes(files)
	return files, nil
}

type episodeKey struct {
	parent  string
	season  int
	episode int
	name    string
}

func sortKey(path string) episodeKey {
	name := filepath.Base(path)
	key := episodeKey{
		parent:  strings.ToLower(filepath.Dir(path)),
		season:  999,
		episode: 999,
		name:    strings.ToLower(name),
	}
	if info, ok := naming.GetSeasonEpisode(name, false); ok {
		key.season = info.Season
		key.episode = info.Episode
	}
	return key
}

// SortEpisodes orders paths by directory, then season and episode, then
// name. Files without an episode code sort after those with one.
func SortEpisodes(paths []string) {
	keys := make(map[string]episodeKey, len(paths))
	for _, p := range paths {
		keys[p] = sortKey(p)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		a, b := keys[paths[i]], keys[paths[j]]
		if a.parent != b.parent {
			return a.parent < b.parent
		}
		if a.season != b.season {
			return a.season < b.season
		}
		if a.episode != b.episode {
			return a.episode < b.episode
		}
		return a.name < b.name
	})
}
