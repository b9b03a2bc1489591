package jobscript

import (
	"testing"

	"gotest.tools/assert"
)

const sampleScript = `#!/bin/bash
# properties = {"rule": "align", "jobid": "j1", "threads": 4, "resources": {"mem_mb": 8192, "disk_gb": 20}, "log": ["logs/align.log"]}
set -e
echo running
`

func TestParseExplicitMB(t *testing.T) {
	info, err := Parse("j1", sampleScript)
	assert.NilError(t, err)
	assert.Equal(t, info.Rule, "align")
	assert.Equal(t, info.JobName, "hd-align-j1")
	assert.Equal(t, info.Threads, 4)
	assert.Equal(t, info.Req.CPUs, 4)
	assert.Equal(t, info.Req.MemMB, 8192)
	assert.Equal(t, info.Req.DiskGB, 20)
}

func TestParseJobNameUsesPreambleJobidNotExternalJobid(t *testing.T) {
	// The launcher's generated jobid (the jobs-table primary key) and
	// snakemake's own internal jobid are different values in
	// practice; JobName must derive from the latter.
	script := `#!/bin/bash
# properties = {"rule": "align", "jobid": "7", "threads": 1, "resources": {}, "log": []}
set -e
`
	info, err := Parse("ext-uuid-123", script)
	assert.NilError(t, err)
	assert.Equal(t, info.JobID, "ext-uuid-123")
	assert.Equal(t, info.JobName, "hd-align-7")
}

func TestParseJobNameFallsBackToExternalJobidWhenPreambleOmitsIt(t *testing.T) {
	script := `#!/bin/bash
# properties = {"rule": "align", "threads": 1, "resources": {}, "log": []}
set -e
`
	info, err := Parse("ext-uuid-123", script)
	assert.NilError(t, err)
	assert.Equal(t, info.JobName, "hd-align-ext-uuid-123")
}

func TestParseDefaultsWhenHeaderMissing(t *testing.T) {
	info, err := Parse("j2", "#!/bin/bash\necho hi\n")
	assert.NilError(t, err)
	assert.Equal(t, info.Req.MemMB, defaultMemMB)
	assert.Equal(t, info.Req.DiskGB, 0)
	assert.Equal(t, info.Threads, 1)
}
