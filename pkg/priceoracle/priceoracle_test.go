package priceoracle

import (
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
)

func TestReduceToLatestKeepsMostRecentPerShapeZone(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	obs := []cloudapi.SpotPriceObservation{
		{Shape: "s1", AZ: "a", Price: 0.05, Timestamp: older},
		{Shape: "s1", AZ: "a", Price: 0.02, Timestamp: newer},
		{Shape: "s1", AZ: "b", Price: 0.03, Timestamp: older},
	}

	latest := reduceToLatest(obs)
	assert.Equal(t, len(latest), 2)
	assert.Equal(t, latest[shapeAZ{"s1", "a"}].Price, 0.02)
	assert.Equal(t, latest[shapeAZ{"s1", "b"}].Price, 0.03)
}
