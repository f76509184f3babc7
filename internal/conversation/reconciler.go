// Package conversation keeps the local ordered message list of the active
// conversation consistent across three concurrent inputs: full reloads
// triggered after local writes, asynchronously pushed feed events, and
// user-initiated conversation switches.
package conversation

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/model"
)

// Apply folds one feed event into the current list and returns the new
// list. It is idempotent under duplicate delivery: an insert for an id
// already present replaces that entry instead of appending a duplicate,
// which covers the row arriving via both the post-write reload and the
// feed. The result is always ordered by creation time ascending.
//
// Inserts and updates are filtered to the active (self, partner) pair in
// either direction. Deletes are applied unconditionally by id, with no
// relevance filter, mirroring the asymmetry of the system this models;
// globally unique ids make the over-broad removal unobservable in
// practice.
func Apply(list []model.Message, event model.ChangeEvent, selfID, partnerID uuid.UUID) []model.Message {
	switch event.Type {
	case model.ChangeInserted, model.ChangeUpdated:
		if !event.Message.InConversation(selfID, partnerID) {
			return list
		}
		return upsert(list, event.Message)
	case model.ChangeDeleted:
		return remove(list, event.Message.ID)
	default:
		return list
	}
}

// Merge reconciles a completed reload with the current list. The fetched
// snapshot is authoritative for every id it contains; current entries
// missing from it are kept, so a feed insert that raced ahead of the
// reload snapshot is not lost. The result is ordered by creation time
// ascending.
func Merge(current, fetched []model.Message) []model.Message {
	inFetched := make(map[uuid.UUID]bool, len(fetched))
	merged := make([]model.Message, 0, len(fetched)+len(current))
	for _, message := range fetched {
		inFetched[message.ID] = true
		merged = append(merged, message)
	}
	for _, message := range current {
		if !inFetched[message.ID] {
			merged = append(merged, message)
		}
	}

	sortMessages(merged)
	return merged
}

// upsert replaces the entry with the same id in place, or inserts the
// message at its chronological position.
func upsert(list []model.Message, message model.Message) []model.Message {
	for i := range list {
		if list[i].ID == message.ID {
			out := append([]model.Message(nil), list...)
			out[i] = message
			return out
		}
	}

	out := append(append([]model.Message(nil), list...), message)
	sortMessages(out)
	return out
}

func remove(list []model.Message, id uuid.UUID) []model.Message {
	out := make([]model.Message, 0, len(list))
	for _, message := range list {
		if message.ID != id {
			out = append(out, message)
		}
	}
	return out
}

// sortMessages orders by creation time ascending, breaking timestamp ties
// by id so the rendered order is deterministic.
func sortMessages(list []model.Message) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID.String() < list[j].ID.String()
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
