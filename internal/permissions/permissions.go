// Package permissions handles file modes and ownership around renames.
package permissions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Policy is the ownership and mode applied to files after a rename.
// Negative IDs and a zero mode mean "leave as is".
type Policy struct {
	UID  int
	GID  int
	Mode os.FileMode
}

// NoChange is a Policy that leaves files untouched.
var NoChange = Policy{UID: -1, GID: -1}

// IsZero reports whether applying the policy would do nothing.
func (p Policy) IsZero() bool {
	return p.UID < 0 && p.GID < 0 && p.Mode == 0
}

// CanRename checks that the parent directory of path is writable, which is
// what a rename actually needs.
func CanRename(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	dirInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false, err
	}

	return dirInfo.Mode().Perm()&0200 != 0, nil
}

// EnsureOwnerWritable adds the owner write bit when it is missing. Some
// filesystems refuse to rename read-only files.
func EnsureOwnerWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode&0200 != 0 {
		return nil
	}

	if err := os.Chmod(path, mode|0200); err != nil {
		return &PermissionError{Path: path, Op: "chmod", Err: err, UID: -1, GID: -1}
	}
	return nil
}

// Apply sets mode and ownership according to the policy.
func Apply(path string, p Policy) error {
	if p.Mode != 0 {
		if err := os.Chmod(path, p.Mode); err != nil {
			return &PermissionError{Path: path, Op: "chmod", Err: err, UID: p.UID, GID: p.GID}
		}
	}

	if p.UID < 0 && p.GID < 0 {
		return nil
	}

	need, err := NeedsOwnershipChange(path, p.UID, p.GID)
	if err != nil || !need {
		return err
	}

	uid, gid := p.UID, p.GID
	currentUID, currentGID, err := GetFileOwnership(path)
	if err != nil {
		return fmt.Errorf("failed to get current ownership: %w", err)
	}
	if uid < 0 {
		uid = currentUID
	}
	if gid < 0 {
		gid = currentGID
	}

	if err := os.Chown(path, uid, gid); err != nil {
		return &PermissionError{Path: path, Op: "chown", Err: err, UID: uid, GID: gid}
	}
	return nil
}

// GetFileOwnership returns UID and GID of a file
func GetFileOwnership(path string) (int, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return -1, -1, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return -1, -1, fmt.Errorf("failed to get file stat")
	}

	return int(stat.Uid), int(stat.Gid), nil
}

// NeedsOwnershipChange checks if file ownership differs from target
func NeedsOwnershipChange(path string, targetUID, targetGID int) (bool, error) {
	if targetUID < 0 && targetGID < 0 {
		return false, nil // No target ownership specified
	}

	currentUID, currentGID, err := GetFileOwnership(path)
	if err != nil {
		return false, err
	}

	if targetUID >= 0 && currentUID != targetUID {
		return true, nil
	}
	if targetGID >= 0 && currentGID != targetGID {
		return true, nil
	}

	return false, nil
}

// PermissionError wraps a permission failure with a suggested fix.
type PermissionError struct {
	Path string
	Op   string
	Err  error
	UID  int
	GID  int
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied: cannot %s %s: %v", e.Op, e.Path, e.Err)
	if e.UID >= 0 || e.GID >= 0 {
		return msg + fmt.Sprintf("\n\nTo fix this, run:\n  sudo chown %s %s", ownerSpec(e.UID, e.GID), e.Path)
	}
	return msg + fmt.Sprintf("\n\nTo fix this, run:\n  sudo chmod 644 %s", e.Path)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// IsPermission reports whether err is a permission failure.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe) || errors.Is(err, fs.ErrPermission)
}

func ownerSpec(uid, gid int) string {
	switch {
	case uid >= 0 && gid >= 0:
		return fmt.Sprintf("%d:%d", uid, gid)
	case uid >= 0:
		return fmt.Sprintf("%d", uid)
	default:
		return fmt.Sprintf(":%d", gid)
	}
}
