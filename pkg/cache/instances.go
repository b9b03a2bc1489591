package cache

// InstanceTypesEmpty reports whether the instance_types table has no
// rows yet, gating ensurePopulated (§4.2).
func (c *Cache) InstanceTypesEmpty() (bool, error) {
	var count int64
	if err := c.db.Model(&InstanceShape{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// PutInstanceShapes persists the filtered catalog and its feature
// overlay in one pass.
func (c *Cache) PutInstanceShapes(shapes []InstanceShape, features []ITFeature) error {
	for i := range shapes {
		if err := c.db.Create(&shapes[i]).Error; err != nil {
			return err
		}
	}
	for i := range features {
		if err := c.db.Create(&features[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListInstanceShapes returns every cached shape.
func (c *Cache) ListInstanceShapes() ([]InstanceShape, error) {
	var shapes []InstanceShape
	err := c.db.Find(&shapes).Error
	return shapes, err
}

// ListFeatures returns every cached (shape,key,value) feature row.
func (c *Cache) ListFeatures() ([]ITFeature, error) {
	var features []ITFeature
	err := c.db.Find(&features).Error
	return features, err
}

// ClearCatalog deletes every cached shape and feature row so the next
// ensurePopulated call re-fetches from the cloud ("operator re-runs
// clear the cache explicitly", §4.2).
func (c *Cache) ClearCatalog() error {
	if err := c.db.Where("1 = 1").Delete(&InstanceShape{}).Error; err != nil {
		return err
	}
	return c.db.Where("1 = 1").Delete(&ITFeature{}).Error
}
