// Package config holds the bridge's startup configuration. Values come from
// flags first, then AZBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for the search budgets handed to the searcher.
const (
	DefaultMaxIterations = 15000
	DefaultMaxSeconds    = 5
	DefaultCPuct         = 2.0
)

// DisabledModelPath is the literal model-path value that runs the bridge
// without inference. An empty value means the same thing.
const DisabledModelPath = "none"

type Config struct {
	v *viper.Viper

	modelPathSet bool
}

// Load parses command-line arguments and binds environment overrides.
func (c *Config) Load(args []string) error {
	c.v = viper.New()
	fs := pflag.NewFlagSet("azbridge", pflag.ContinueOnError)
	fs.String("model-path", "", "path to the serialized ONNX policy/value network; \"none\" or empty disables inference")
	fs.Int("max-iterations", DefaultMaxIterations, "search iteration budget per request")
	fs.Int("max-seconds", DefaultMaxSeconds, "search time budget per request, in seconds")
	fs.Float64("cpuct", DefaultCPuct, "exploration constant handed to the searcher")
	fs.String("log-level", "info", "log level (debug, info, disabled)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.modelPathSet = fs.Changed("model-path")
	c.v.SetEnvPrefix("azbridge")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	if _, ok := os.LookupEnv("AZBRIDGE_MODEL_PATH"); ok {
		c.modelPathSet = true
	}
	return c.v.BindPFlags(fs)
}

// Validate enforces the required arguments. A failure here is fatal; the
// daemon never enters its ready state.
func (c *Config) Validate() error {
	if !c.modelPathSet {
		return errors.New("model-path is required (pass \"none\" to run unguided)")
	}
	if c.GetInt("max-iterations") <= 0 {
		return fmt.Errorf("max-iterations must be positive, got %d", c.GetInt("max-iterations"))
	}
	if c.GetInt("max-seconds") <= 0 {
		return fmt.Errorf("max-seconds must be positive, got %d", c.GetInt("max-seconds"))
	}
	if c.GetFloat64("cpuct") <= 0 {
		return fmt.Errorf("cpuct must be positive, got %v", c.GetFloat64("cpuct"))
	}
	return nil
}

// InferenceDisabled reports whether the bridge should run without a model.
func (c *Config) InferenceDisabled() bool {
	mp := c.GetString("model-path")
	return mp == "" || mp == DisabledModelPath
}

func (c *Config) GetString(key string) string   { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

// AllSettings is used for the startup log line.
func (c *Config) AllSettings() map[string]any { return c.v.AllSettings() }
