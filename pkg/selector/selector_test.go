package selector

import (
	"testing"

	"gotest.tools/assert"

	"github.com/rvalieris/hyperdrive/pkg/cache"
)

func fixtureShapes() []cache.InstanceShape {
	return []cache.InstanceShape{
		{Shape: "s1", CPUs: 2, MemMB: 4096, StorageGB: 0},
		{Shape: "s2", CPUs: 4, MemMB: 4096, StorageGB: 0},
	}
}

func fixtureQuotes() []cache.SpotQuote {
	return []cache.SpotQuote{
		{Shape: "s1", AZ: "a", Price: 0.02},
		{Shape: "s1", AZ: "b", Price: 0.02},
		{Shape: "s2", AZ: "a", Price: 0.04},
	}
}

// §8 scenario 1: happy path tie set.
func TestSelectHappyPathTieSet(t *testing.T) {
	placements, err := Select(fixtureShapes(), nil, fixtureQuotes(), Requirements{CPUs: 2, MemMB: 4096})
	assert.NilError(t, err)
	assert.Equal(t, len(placements), 2)
	for _, p := range placements {
		assert.Equal(t, p.Shape, "s1")
		assert.Equal(t, p.Cost, 0.02)
	}
}

// §8 scenario 2: after backoff on (s1,a), only s1/b remains.
func TestSelectExcludesBackedOffQuotes(t *testing.T) {
	quotes := fixtureQuotes()
	for i := range quotes {
		if quotes[i].Shape == "s1" && quotes[i].AZ == "a" {
			quotes[i].Backoff = 1
		}
	}
	placements, err := Select(fixtureShapes(), nil, quotes, Requirements{CPUs: 2, MemMB: 4096})
	assert.NilError(t, err)
	assert.Equal(t, len(placements), 1)
	assert.Equal(t, placements[0].AZ, "b")
}

func TestSelectNoFeasibleShape(t *testing.T) {
	_, err := Select(fixtureShapes(), nil, fixtureQuotes(), Requirements{CPUs: 64, MemMB: 4096})
	assert.ErrorContains(t, err, "NoFeasibleShape")
}

func TestSelectAllBackedOff(t *testing.T) {
	quotes := fixtureQuotes()
	for i := range quotes {
		quotes[i].Backoff = 1
	}
	_, err := Select(fixtureShapes(), nil, quotes, Requirements{CPUs: 2, MemMB: 4096})
	assert.ErrorContains(t, err, "AllBackedOff")
}

// §8 boundaries: disk_gb=0 -> extra_ebs=0.
func TestSelectZeroDiskNoExtraEBS(t *testing.T) {
	placements, err := Select(fixtureShapes(), nil, fixtureQuotes(), Requirements{CPUs: 2, MemMB: 4096, DiskGB: 0})
	assert.NilError(t, err)
	assert.Equal(t, placements[0].ExtraEBS, 0)
}

// §8 boundaries: disk_gb > storage_gb -> extra_ebs = disk_gb - storage_gb.
func TestSelectExtraEBSWhenDiskExceedsStorage(t *testing.T) {
	placements, err := Select(fixtureShapes(), nil, fixtureQuotes(), Requirements{CPUs: 2, MemMB: 4096, DiskGB: 50})
	assert.NilError(t, err)
	assert.Equal(t, placements[0].ExtraEBS, 50)
	expectedCost := 0.02 + 50*ebsGBHour
	assert.Equal(t, placements[0].Cost, expectedCost)
}

func TestSelectFeatureFilter(t *testing.T) {
	features := []cache.ITFeature{{Shape: "s2", Key: "network_bw_gbps", Value: 25}}
	placements, err := Select(fixtureShapes(), features, fixtureQuotes(),
		Requirements{CPUs: 2, MemMB: 4096, Features: map[string]float64{"network_bw_gbps": 20}})
	assert.NilError(t, err)
	assert.Equal(t, len(placements), 1)
	assert.Equal(t, placements[0].Shape, "s2")
}
