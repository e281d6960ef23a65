package types

// Status is the row lifecycle status shared by every persisted model.
// Rows are never hard deleted; queries filter on status = 'published'.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
