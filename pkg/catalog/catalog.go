// Package catalog implements the Instance Catalog (C2): lazy
// population of the local cache's instance-shape table from the
// cloud, filtered by policy.
package catalog

import (
	"context"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/logger"
)

// Catalog is the Instance Catalog component.
type Catalog struct {
	cache    *cache.Cache
	clients  *cloudapi.Clients
	features map[string]map[string]float64
}

// New constructs a Catalog. features is the static shape->feature
// overlay (§4.2: "a sibling static feature file maps shape names to
// extra numeric feature values").
func New(c *cache.Cache, clients *cloudapi.Clients, features map[string]map[string]float64) *Catalog {
	return &Catalog{cache: c, clients: clients, features: features}
}

// eligible applies the 7-condition filter policy of §4.2, carried 1:1
// from hyperdrive.py's get_instances_info().
func eligible(it cloudapi.RawInstanceType) bool {
	hasX86 := false
	for _, a := range it.Architectures {
		if a == "x86_64" {
			hasX86 = true
		}
	}
	if !hasX86 {
		return false
	}
	if it.SustainedClockGHz <= 0 {
		return false
	}
	if !it.SupportsSpot {
		return false
	}
	if !it.SupportsEBSRoot {
		return false
	}
	if it.HasGPU || it.HasFPGA || it.HasInferenceAccel {
		return false
	}
	if it.BareMetal {
		return false
	}
	if it.Burstable {
		return false
	}
	return true
}

// EnsurePopulated fetches and filters the cloud's instance catalog
// the first time it is called; subsequent calls are no-ops until the
// operator explicitly clears the cache (§4.2).
func (c *Catalog) EnsurePopulated(ctx context.Context) error {
	empty, err := c.cache.InstanceTypesEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	logger.Info("instance catalog empty, fetching from cloud")
	raw, err := c.clients.DescribeAllInstanceTypes(ctx)
	if err != nil {
		return err
	}

	var shapes []cache.InstanceShape
	var feats []cache.ITFeature
	for _, it := range raw {
		if !eligible(it) {
			continue
		}
		shapes = append(shapes, cache.InstanceShape{
			Shape:     it.Shape,
			CPUs:      it.VCPUs,
			MemMB:     it.MemMB,
			StorageGB: it.StorageGB,
		})
		for key, val := range c.features[it.Shape] {
			feats = append(feats, cache.ITFeature{Shape: it.Shape, Key: key, Value: val})
		}
	}

	logger.Infof("caching %d eligible instance shapes", len(shapes))
	return c.cache.PutInstanceShapes(shapes, feats)
}

// Clear deletes the cached catalog so the next EnsurePopulated call
// re-fetches from the cloud.
func (c *Catalog) Clear() error {
	return c.cache.ClearCatalog()
}
