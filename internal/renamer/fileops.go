package renamer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/metadata"
	"github.com/Nomadcxx/jellyrename/internal/permissions"
)

// MsgAlreadyCorrect is the message of a skipped result whose file already
// has the target name.
const MsgAlreadyCorrect = "Already correct"

// CompanionExtensions are the sidecar files renamed along with a video.
var CompanionExtensions = map[string]bool{
	".srt": true, ".ass": true, ".vtt": true, ".ssa": true, ".sub": true,
	".idx": true, ".nfo": true, ".jpg": true, ".jpeg": true, ".png": true,
	".ttml": true, ".txt": true, ".sfv": true, ".srr": true, ".tbn": true,
	".cue": true, ".xml": true, ".mka": true, ".mks": true,
}

// Result is the outcome of one rename. Failures are data, never errors.
type Result struct {
	OldPath    string
	NewPath    string
	Success    bool
	Skipped    bool
	Message    string
	Title      string
	Companions []Result
	Metadata   *metadata.Result
}

// Renamed reports whether the file was (or in a dry run would be) moved.
func (r Result) Renamed() bool {
	return r.Success && !r.Skipped
}

// AlreadyCorrect reports whether the file needed no change.
func (r Result) AlreadyCorrect() bool {
	return r.Success && r.Skipped && r.Message == MsgAlreadyCorrect
}

func isCaseOnlyRename(oldPath, newPath string) bool {
	return oldPath != newPath && strings.EqualFold(oldPath, newPath)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// SafeRename moves oldPath to newPath. Existing destinations are left alone
// unless force is set. Case-only renames go through a temporary name so
// they also work on case-insensitive filesystems.
func SafeRename(oldPath, newPath string, dryRun, force bool) Result {
	res := Result{OldPath: oldPath, NewPath: newPath}

	if !exists(oldPath) {
		res.Message = fmt.Sprintf("Source doesn't exist: %s", oldPath)
		return res
	}

	if oldPath == newPath {
		res.Success = true
		res.Skipped = true
		res.Message = MsgAlreadyCorrect
		return res
	}

	caseOnly := isCaseOnlyRename(oldPath, newPath)
	if exists(newPath) && !caseOnly && !force {
		res.Skipped = true
		res.Message = fmt.Sprintf("Destination exists: %s", filepath.Base(newPath))
		return res
	}

	if dryRun {
		res.Success = true
		res.Message = "Would rename"
		return res
	}

	if ok, err := permissions.CanRename(oldPath); err == nil && !ok {
		res.Message = fmt.Sprintf("Rename failed: directory not writable: %s", filepath.Dir(oldPath))
		return res
	}
	// best effort; the rename below reports the real failure
	_ = permissions.EnsureOwnerWritable(oldPath)

	if caseOnly {
		tmpPath := newPath + ".__tmp__"
		if err := os.Rename(oldPath, tmpPath); err != nil {
			res.Message = fmt.Sprintf("Rename failed: %v", err)
			return res
		}
		if err := os.Rename(tmpPath, newPath); err != nil {
			// put the file back where it was
			_ = os.Rename(tmpPath, oldPath)
			res.Message = fmt.Sprintf("Rename failed: %v", err)
			return res
		}
	} else if err := os.Rename(oldPath, newPath); err != nil {
		res.Message = fmt.Sprintf("Rename failed: %v", err)
		return res
	}

	res.Success = true
	res.Message = "Renamed"
	return res
}

// RenameCompanions renames sidecar files that share the old video's base
// name. Anything after the base name is kept, so "ep.en.srt" becomes
// "<new>.en.srt".
func RenameCompanions(oldVideo, newVideo string, dryRun bool) []Result {
	dir := filepath.Dir(oldVideo)
	oldBase := strings.TrimSuffix(filepath.Base(oldVideo), filepath.Ext(oldVideo))
	newBase := strings.TrimSuffix(filepath.Base(newVideo), filepath.Ext(newVideo))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dir, name)
		if path == oldVideo {
			continue
		}
		if !CompanionExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if !strings.HasPrefix(name, oldBase) {
			continue
		}
		// "ep1" must not claim "ep10.srt"; "-thumb.jpg" style suffixes still match
		suffix := name[len(oldBase):]
		if !strings.HasPrefix(suffix, ".") && !strings.HasPrefix(suffix, "-") {
			continue
		}
		newPath := filepath.Join(dir, newBase+suffix)
		results = append(results, SafeRename(path, newPath, dryRun, false))
	}

	return results
}
