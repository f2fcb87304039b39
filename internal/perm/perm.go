package perm

import (
	"errors"
	"fmt"

	"taskboard-cli/internal/model"
)

// ErrNotOwner is returned by CheckModifyTask when the caller may not change a task.
var ErrNotOwner = errors.New("only the task owner can modify it")

// CanModifyTask enforces the board's ownership rule for editing or deleting a task.
//
// Rules:
//   - Only the task's owner can edit or delete it.
//   - An unknown caller (user id 0, e.g. before the identity fetch completes) can't modify anything.
//
// Anyone may view a task. The server enforces the same rule; this check only
// keeps the client from offering actions that would be rejected.
func CanModifyTask(loginUserID int, t model.Task) bool {
	if loginUserID == 0 || t.ID == 0 {
		return false
	}
	return t.Owner == loginUserID
}

// CheckModifyTask is CanModifyTask as an error for command-line callers.
func CheckModifyTask(loginUserID int, t model.Task) error {
	if CanModifyTask(loginUserID, t) {
		return nil
	}
	owner := t.OwnerUsername
	if owner == "" {
		owner = fmt.Sprintf("user %d", t.Owner)
	}
	return fmt.Errorf("task %d is owned by %s: %w", t.ID, owner, ErrNotOwner)
}
