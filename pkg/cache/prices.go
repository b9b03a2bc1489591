package cache

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertSpotQuotes persists refreshed quotes with backoff reset to 0
// — "a fresh quote clears any prior backoff" (§4.3).
func (c *Cache) UpsertSpotQuotes(quotes []SpotQuote) error {
	for i := range quotes {
		quotes[i].Backoff = 0
		err := c.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shape"}, {Name: "az"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "backoff"}),
		}).Create(&quotes[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ListSpotQuotes returns every cached (shape,az) quote.
func (c *Cache) ListSpotQuotes() ([]SpotQuote, error) {
	var quotes []SpotQuote
	err := c.db.Find(&quotes).Error
	return quotes, err
}

// Backoff increments the backoff counter for (shape,az) by exactly 1,
// via an in-transaction read-modify-write rather than a replace, since
// concurrent callers may both observe the same capacity failure
// (§5: "an in-transaction read-modify-write is required, not a
// replace").
func (c *Cache) Backoff(shape, az string) error {
	return c.db.Model(&SpotQuote{}).
		Where("shape = ? AND az = ?", shape, az).
		UpdateColumn("backoff", gorm.Expr("backoff + 1")).Error
}
