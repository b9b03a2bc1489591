package cloudapi

import (
	"testing"

	"gotest.tools/assert"
)

func TestPathExcludedMatchesAnyComponent(t *testing.T) {
	excludes := []string{".git", "hyperdrive.db"}
	assert.Assert(t, pathExcluded(".git/HEAD", excludes))
	assert.Assert(t, pathExcluded("sub/.git/config", excludes))
	assert.Assert(t, pathExcluded("hyperdrive.db", excludes))
	assert.Assert(t, !pathExcluded("workflow/Snakefile", excludes))
}

func TestSplitPrefixAndJoinKey(t *testing.T) {
	bucket, keyPrefix := SplitPrefix("my-bucket/runs/2026")
	assert.Equal(t, bucket, "my-bucket")
	assert.Equal(t, keyPrefix, "runs/2026")
	assert.Equal(t, JoinKey(keyPrefix, "_jobs/abc"), "runs/2026/_jobs/abc")

	bucket2, keyPrefix2 := SplitPrefix("just-a-bucket")
	assert.Equal(t, bucket2, "just-a-bucket")
	assert.Equal(t, keyPrefix2, "")
	assert.Equal(t, JoinKey(keyPrefix2, "_jobs/abc"), "_jobs/abc")
}
