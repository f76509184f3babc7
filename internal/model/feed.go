package model

// ChangeType enumerates row-level change kinds delivered by the feed.
type ChangeType string

const (
	// ChangeInserted signals a newly created message row.
	ChangeInserted ChangeType = "inserted"
	// ChangeUpdated signals an updated message row (edit or soft delete).
	ChangeUpdated ChangeType = "updated"
	// ChangeDeleted signals a removed message row.
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent is a row-level change on the messages table pushed to feed
// subscribers. Message carries the new row for inserts and updates, and
// the old row for deletes.
type ChangeEvent struct {
	Type    ChangeType `json:"event_type"`
	Message Message    `json:"message"`
}
