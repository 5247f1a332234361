package database

import (
	"fmt"
	"time"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordRendering stores a leaderboard post reported by the renderer.
func (l *Ledger) RecordRendering(r *models.Rendering) error {
	if r.ChannelID == 0 || r.MessageID == 0 {
		return common.Validationf("rendering needs a channel and a message id")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return l.write(func(tx *gorm.DB, now time.Time) error {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("record rendering: %w", err)
		}
		return nil
	})
}

// RecentRenderings returns up to n renderings of a channel, most recent first.
// Renderings recorded at the same instant are ordered by message id, newest
// first.
func (l *Ledger) RecentRenderings(channelID int64, n int) ([]models.Rendering, error) {
	renderings := make([]models.Rendering, 0)
	if n <= 0 {
		return renderings, nil
	}
	if err := l.db.Where("channel_id = ?", channelID).
		Order("created_at desc, message_id desc").
		Limit(n).
		Find(&renderings).Error; err != nil {
		return nil, err
	}
	return renderings, nil
}
