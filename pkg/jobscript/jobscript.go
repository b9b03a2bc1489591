// Package jobscript parses the machine-readable preamble a workflow
// engine emits in each job script (§6 "Job script header"), grounded
// on hyperdrive.py's get_job_info() (defaults, unit conversions,
// jobname derivation).
package jobscript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rvalieris/hyperdrive/pkg/selector"
)

const defaultMemMB = 500

var headerLine = regexp.MustCompile(`^#\s*properties\s*=\s*(\{.*\})\s*$`)

// properties mirrors the JSON blob snakemake's read_job_properties
// reads from a job-script comment line.
type properties struct {
	Rule      string                 `json:"rule"`
	JobID     string                 `json:"jobid"`
	Threads   int                    `json:"threads"`
	Resources map[string]interface{} `json:"resources"`
	Log       []string               `json:"log"`
}

// Info is the parsed job description the Selector/Launcher need. JobID
// is the externally-generated jobs-table primary key passed into
// Parse, not the snakemake-internal jobid read from the script.
type Info struct {
	Rule     string
	JobID    string
	JobName  string
	Threads  int
	Req      selector.Requirements
	LogPaths []string
}

// Parse extracts rule, jobid, threads, resources.*, and log from the
// job-script preamble. Missing resources.mem_mb/mem_gb default to
// 500 MiB; missing resources.disk_gb/disk_mb default to 0 GiB. JobName
// is derived from the preamble's own jobid (properties.jobid), not the
// externally-generated jobid argument, falling back to the latter only
// when the preamble carries none.
func Parse(jobid, script string) (*Info, error) {
	props, err := findProperties(script)
	if err != nil {
		return nil, err
	}

	rule := props.Rule
	if rule == "" {
		rule = "job"
	}

	snakemakeJobID := props.JobID
	if snakemakeJobID == "" {
		snakemakeJobID = jobid
	}

	threads := props.Threads
	if threads <= 0 {
		threads = 1
	}

	memMB := defaultMemMB
	if v, ok := numericResource(props.Resources, "mem_mb"); ok {
		memMB = int(v)
	} else if v, ok := numericResource(props.Resources, "mem_gb"); ok {
		memMB = int(v * 1024)
	}

	diskGB := 0
	if v, ok := numericResource(props.Resources, "disk_gb"); ok {
		diskGB = int(v)
	} else if v, ok := numericResource(props.Resources, "disk_mb"); ok {
		diskGB = int(math.Ceil(v / 1024))
	}

	features := map[string]float64{}
	for k := range props.Resources {
		if k == "mem_mb" || k == "mem_gb" || k == "disk_gb" || k == "disk_mb" {
			continue
		}
		if v, ok := numericResource(props.Resources, k); ok {
			features[k] = v
		}
	}

	return &Info{
		Rule:    rule,
		JobID:   jobid,
		JobName: fmt.Sprintf("hd-%s-%s", rule, snakemakeJobID),
		Threads: threads,
		Req: selector.Requirements{
			CPUs:     threads,
			MemMB:    memMB,
			DiskGB:   diskGB,
			Features: features,
		},
		LogPaths: props.Log,
	}, nil
}

func numericResource(resources map[string]interface{}, key string) (float64, bool) {
	v, ok := resources[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// findProperties scans the script for the `# properties = {...}`
// preamble line snakemake emits and decodes its JSON blob.
func findProperties(script string) (*properties, error) {
	scanner := bufio.NewScanner(strings.NewReader(script))
	for scanner.Scan() {
		m := headerLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		var p properties
		if err := json.Unmarshal([]byte(m[1]), &p); err != nil {
			return nil, fmt.Errorf("parsing job-script properties: %w", err)
		}
		return &p, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &properties{}, nil
}
