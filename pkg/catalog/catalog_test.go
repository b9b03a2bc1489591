package catalog

import (
	"testing"

	"gotest.tools/assert"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
)

func TestEligibleFiltersOnEveryCondition(t *testing.T) {
	base := func() cloudapi.RawInstanceType {
		return cloudapi.RawInstanceType{
			Architectures:     []string{"x86_64"},
			SustainedClockGHz: 3.1,
			SupportsSpot:      true,
			SupportsEBSRoot:   true,
		}
	}

	good := base()
	assert.Equal(t, eligible(good), true)

	noArch := base()
	noArch.Architectures = []string{"arm64"}
	assert.Equal(t, eligible(noArch), false)

	noClock := base()
	noClock.SustainedClockGHz = 0
	assert.Equal(t, eligible(noClock), false)

	noSpot := base()
	noSpot.SupportsSpot = false
	assert.Equal(t, eligible(noSpot), false)

	noEBS := base()
	noEBS.SupportsEBSRoot = false
	assert.Equal(t, eligible(noEBS), false)

	gpu := base()
	gpu.HasGPU = true
	assert.Equal(t, eligible(gpu), false)

	bareMetal := base()
	bareMetal.BareMetal = true
	assert.Equal(t, eligible(bareMetal), false)

	burstable := base()
	burstable.Burstable = true
	assert.Equal(t, eligible(burstable), false)
}

func TestDefaultFeaturesParses(t *testing.T) {
	feats, err := DefaultFeatures()
	assert.NilError(t, err)
	assert.Assert(t, len(feats) > 0)
	assert.Equal(t, feats["m5.large"]["network_bw_gbps"], float64(10))
}
