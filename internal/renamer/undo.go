package renamer

import (
	"errors"
	"fmt"

	"github.com/Nomadcxx/jellyrename/internal/history"
)

// ErrIncompleteUndo is returned when some renames of a session could not
// be reverted. The session stays undoable so it can be retried.
var ErrIncompleteUndo = errors.New("undo incomplete")

// MsgAlreadyRestored marks a rename reverted by an earlier, incomplete undo.
const MsgAlreadyRestored = "Already restored"

// alreadyRestored reports whether an earlier undo attempt moved the file
// back before failing on another rename.
func alreadyRestored(rn history.Rename) bool {
	return rn.OldPath != rn.NewPath && !exists(rn.NewPath) && exists(rn.OldPath)
}

// Undo reverts a recorded session, newest rename first. sessionID 0 means
// the most recent undoable session. In a dry run nothing is moved and the
// session is left as is.
func Undo(db *history.DB, sessionID int64, dryRun bool) (history.Session, []Result, error) {
	var (
		sess history.Session
		err  error
	)
	if sessionID == 0 {
		sess, err = db.LastSession()
	} else {
		sess, err = db.GetSession(sessionID)
	}
	if err != nil {
		return sess, nil, err
	}
	if sess.Undone() {
		return sess, nil, fmt.Errorf("session %d already undone: %w", sess.ID, history.ErrNoSession)
	}

	renames, err := db.SessionRenames(sess.ID)
	if err != nil {
		return sess, nil, fmt.Errorf("failed to load renames: %w", err)
	}

	results := make([]Result, 0, len(renames))
	failed := 0
	for _, rn := range renames {
		if alreadyRestored(rn) {
			results = append(results, Result{
				OldPath: rn.NewPath,
				NewPath: rn.OldPath,
				Success: true,
				Skipped: true,
				Message: MsgAlreadyRestored,
			})
			continue
		}
		res := SafeRename(rn.NewPath, rn.OldPath, dryRun, false)
		if !res.Success {
			failed++
		}
		results = append(results, res)
	}

	if dryRun {
		return sess, results, nil
	}
	if failed > 0 {
		return sess, results, fmt.Errorf("%d of %d renames not reverted: %w", failed, len(renames), ErrIncompleteUndo)
	}

	if err := db.MarkUndone(sess.ID); err != nil {
		return sess, results, err
	}
	return sess, results, nil
}
