package agent

import (
	"encoding/json"
	"os"
)

// Config is the single JSON blob the Launcher writes into the
// cloud-init payload and that LoadConfig reads back from disk
// (§4.5 step 4 / §4.7 phase 1).
type Config struct {
	JobID     string   `json:"jobid"`
	SQSURL    string   `json:"sqs_url"`
	Prefix    string   `json:"prefix"`
	LogGroup  string   `json:"log_group"`
	ExtraLogs []string `json:"extra_logs"`
}

// LoadConfig reads the agent's own config file, written to disk by
// cloud-init before hyperdrive-agent is exec'd.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
