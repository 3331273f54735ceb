package sync

import "github.com/google/uuid"

// coalescedChange is a pending change that survived coalescing, together with
// the ids of the earlier changes folded into it. Absorbed ids must still be
// acknowledged once the survivor settles, otherwise the client would carry
// those queue rows forever.
type coalescedChange struct {
	PendingChange
	absorbed []uuid.UUID
}

// coalesce collapses multiple pending changes targeting the same record into
// one before classification runs. The latest change's data and type win, but
// the earliest declared base version is carried forward so the merge anchor
// stays the version the client actually branched from. Relative queue order
// of the survivors is preserved.
func coalesce(changes []PendingChange) []coalescedChange {
	type key struct {
		entity string
		id     string
	}

	order := make([]key, 0, len(changes))
	latest := make(map[key]coalescedChange)

	for _, c := range changes {
		k := key{entity: c.Entity, id: c.EntityID.String()}
		prev, seen := latest[k]
		if !seen {
			order = append(order, k)
			latest[k] = coalescedChange{PendingChange: c}
			continue
		}

		merged := coalescedChange{
			PendingChange: c,
			absorbed:      append(prev.absorbed, prev.ID),
		}
		// Creates stay creates: a later update to a record the server has
		// never seen must still insert it.
		if prev.Type == ChangeCreate && c.Type != ChangeDelete {
			merged.Type = ChangeCreate
		}
		if prev.BaseVersion != nil {
			merged.BaseVersion = prev.BaseVersion
		}
		latest[k] = merged
	}

	out := make([]coalescedChange, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}
