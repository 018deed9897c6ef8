package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chesshacks/azbridge/config"
)

func TestDefaults(t *testing.T) {
	c := &config.Config{}
	err := c.Load([]string{"--model-path", "model.onnx"})
	assert.Nil(t, err)
	assert.Nil(t, c.Validate())
	assert.Equal(t, "model.onnx", c.GetString("model-path"))
	assert.Equal(t, 15000, c.GetInt("max-iterations"))
	assert.Equal(t, 5, c.GetInt("max-seconds"))
	assert.Equal(t, 2.0, c.GetFloat64("cpuct"))
	assert.Equal(t, "info", c.GetString("log-level"))
	assert.False(t, c.InferenceDisabled())
}

func TestOverrides(t *testing.T) {
	c := &config.Config{}
	err := c.Load([]string{
		"--model-path", "aznet.onnx",
		"--max-iterations", "800",
		"--max-seconds", "2",
		"--cpuct", "1.5",
		"--log-level", "debug",
	})
	assert.Nil(t, err)
	assert.Nil(t, c.Validate())
	assert.Equal(t, 800, c.GetInt("max-iterations"))
	assert.Equal(t, 2, c.GetInt("max-seconds"))
	assert.Equal(t, 1.5, c.GetFloat64("cpuct"))
}

func TestModelPathRequired(t *testing.T) {
	c := &config.Config{}
	assert.Nil(t, c.Load(nil))
	assert.NotNil(t, c.Validate())
}

func TestModelPathNoneDisablesInference(t *testing.T) {
	for _, val := range []string{"none", ""} {
		c := &config.Config{}
		assert.Nil(t, c.Load([]string{"--model-path", val}))
		assert.Nil(t, c.Validate())
		assert.True(t, c.InferenceDisabled())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("AZBRIDGE_MODEL_PATH", "env.onnx")
	c := &config.Config{}
	assert.Nil(t, c.Load(nil))
	assert.Nil(t, c.Validate())
	assert.Equal(t, "env.onnx", c.GetString("model-path"))
}

func TestRejectsBadBudgets(t *testing.T) {
	for _, args := range [][]string{
		{"--model-path", "m.onnx", "--max-iterations", "0"},
		{"--model-path", "m.onnx", "--max-seconds", "-1"},
		{"--model-path", "m.onnx", "--cpuct", "0"},
	} {
		c := &config.Config{}
		assert.Nil(t, c.Load(args))
		assert.NotNil(t, c.Validate())
	}
}
