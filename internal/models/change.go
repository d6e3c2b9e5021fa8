// Package models defines the data objects shared across prfiles packages.
package models

// ChangeStatus is the single-letter status reported by git diff --name-status.
type ChangeStatus string

// Change statuses understood by the resolver.
const (
	StatusAdded       ChangeStatus = "A"
	StatusModified    ChangeStatus = "M"
	StatusDeleted     ChangeStatus = "D"
	StatusRenamed     ChangeStatus = "R"
	StatusCopied      ChangeStatus = "C"
	StatusTypeChanged ChangeStatus = "T"
	StatusUnmerged    ChangeStatus = "U"
	StatusUnknown     ChangeStatus = "X"
	StatusBroken      ChangeStatus = "B"
)

// String returns a human-readable name for the status.
func (s ChangeStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusCopied:
		return "copied"
	case StatusTypeChanged:
		return "type-changed"
	case StatusUnmerged:
		return "unmerged"
	case StatusBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// ChangeRecord is one entry of git diff --name-status output.
type ChangeRecord struct {
	Status  ChangeStatus
	Path    string // destination path for renames and copies
	OldPath string // source path for renames and copies
}

// Openable reports whether the path still exists at the branch tip.
func (c ChangeRecord) Openable() bool {
	return c.Status != StatusDeleted
}
