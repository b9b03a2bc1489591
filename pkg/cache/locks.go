package cache

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimedLock implements §4.1's timedLock(key, Δ) operation: under an
// exclusive transaction, read the current instant for key; if absent
// or now-stored > delta, overwrite with now and return true.
// Callers whose call returns false MUST skip the guarded refresh.
func (c *Cache) TimedLock(key string, delta time.Duration) (bool, error) {
	acquired := false
	err := c.db.Transaction(func(tx *gorm.DB) error {
		var row TimedLock
		err := tx.Where("key = ?", key).First(&row).Error
		now := time.Now().UTC()

		if err == gorm.ErrRecordNotFound || now.Sub(row.Instant) > delta {
			acquired = true
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"instant"}),
			}).Create(&TimedLock{Key: key, Instant: now}).Error
		}
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return acquired, nil
}
