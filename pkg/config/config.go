// Package config loads and saves the scheduler's YAML configuration
// file.
package config

import (
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

var v = viper.New()

// LoadConfig reads the YAML file at path into the package-level viper
// instance backing the getString/getInt/... helpers below.
func LoadConfig(path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return hderrors.NewError().WithCode(hderrors.CodeConfigMissing).
				WithMessage(path).WithError(err)
		}
		return hderrors.NewError().WithCode(hderrors.CodeConfigMissing).
			WithMessage("failed to parse config file").WithError(err)
	}
	return nil
}

func getString(key, def string) string {
	if !v.IsSet(key) {
		return def
	}
	return v.GetString(key)
}

func getInt(key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	return v.GetInt(key)
}

func getBool(key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}

func getFloat(key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	return v.GetFloat64(key)
}

func getStrings(key string) []string {
	return v.GetStringSlice(key)
}

// Config is the typed view of the scheduler's configuration file (§6).
type Config struct {
	Cache            string `yaml:"cache"`
	AMIID            string `yaml:"amiId"`
	Prefix           string `yaml:"prefix"`
	StackName        string `yaml:"stackName"`
	JobQueueURL      string `yaml:"jobQueueUrl"`
	LogGroupName     string `yaml:"logGroupName"`
	WorkerProfileArn string `yaml:"workerProfileArn"`
	SecurityGroupID  string `yaml:"securityGroupId"`
}

// Load reads and unmarshals the config file at path into a typed
// Config. ConfigMissing is returned for every subcommand but `config`
// when the file is absent.
func Load(path string) (*Config, error) {
	if err := LoadConfig(path); err != nil {
		return nil, err
	}
	cfg := &Config{
		Cache:            getString("cache", ""),
		AMIID:            getString("amiId", ""),
		Prefix:           getString("prefix", ""),
		StackName:        getString("stackName", ""),
		JobQueueURL:      getString("jobQueueUrl", ""),
		LogGroupName:     getString("logGroupName", ""),
		WorkerProfileArn: getString("workerProfileArn", ""),
		SecurityGroupID:  getString("securityGroupId", ""),
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating or truncating the file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
