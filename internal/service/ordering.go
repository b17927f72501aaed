package service

import (
	"errors"
	"strconv"

	"github.com/google/uuid"

	"task-board-api/internal/repository"
)

// errSequenceConflict means a position sequence was not dense after a write,
// which only happens when another writer touched it at the same time
var errSequenceConflict = errors.New("position sequence changed concurrently")

func idsOf(rows []repository.PositionRow) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// clampPosition bounds pos to [0,n]
func clampPosition(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}

// removeID returns ids without id and the index it was found at (-1 when absent)
func removeID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, int) {
	out := make([]uuid.UUID, 0, len(ids))
	idx := -1
	for i, v := range ids {
		if v == id {
			idx = i
			continue
		}
		out = append(out, v)
	}
	return out, idx
}

// insertAt inserts id at pos, clamped to the sequence bounds
func insertAt(ids []uuid.UUID, id uuid.UUID, pos int) []uuid.UUID {
	pos = clampPosition(pos, len(ids))
	out := make([]uuid.UUID, 0, len(ids)+1)
	out = append(out, ids[:pos]...)
	out = append(out, id)
	return append(out, ids[pos:]...)
}

// moveWithin moves id to pos inside the same sequence. pos must already be validated.
func moveWithin(ids []uuid.UUID, id uuid.UUID, pos int) []uuid.UUID {
	rest, idx := removeID(ids, id)
	if idx < 0 {
		return ids
	}
	return insertAt(rest, id, pos)
}

// isDense reports whether rows carry exactly the positions 0..n-1 in order
func isDense(rows []repository.PositionRow) bool {
	for i, r := range rows {
		if r.Position != i {
			return false
		}
	}
	return true
}

// checkDense turns a non-dense read-back into errSequenceConflict
func checkDense(rows []repository.PositionRow, err error) error {
	if err != nil {
		return err
	}
	if !isDense(rows) {
		return errSequenceConflict
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
