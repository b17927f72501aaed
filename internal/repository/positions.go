package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PositionRow is the minimal projection used when re-packing a position sequence
type PositionRow struct {
	ID       uuid.UUID
	Position int
}

// applyPositions writes index i as the position of ordered[i], skipping rows already in place
func applyPositions(db *gorm.DB, model interface{}, ordered []uuid.UUID, current map[uuid.UUID]int) error {
	for i, id := range ordered {
		if pos, ok := current[id]; ok && pos == i {
			continue
		}
		if err := db.Model(model).Where("id = ?", id).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

func positionMap(rows []PositionRow) map[uuid.UUID]int {
	m := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		m[r.ID] = r.Position
	}
	return m
}
