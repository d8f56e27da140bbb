package ebus

import (
	"os"
	"testing"

	"github.com/golang/glog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	opts := buildOptions()
	assert.Equal(t, defaultName, opts.name)
	assert.Equal(t, defaultLogLevel, opts.logLevel)

	opts = buildOptions(WithName("ui"), WithLogLevel(0))
	assert.Equal(t, "ui", opts.name)
	assert.Equal(t, glog.Level(0), opts.logLevel)

	d := NewDispatcher(WithName("game"), WithLogLevel(4))
	assert.Equal(t, "game", d.name)
	assert.Equal(t, glog.Level(4), d.logLevel)
	assert.Equal(t, StatePending, d.State())
}

func TestOptionsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("EBUS_NAME", "")
		t.Setenv("EBUS_LOG_LEVEL", "")
		require.NoError(t, os.Unsetenv("EBUS_NAME"))
		require.NoError(t, os.Unsetenv("EBUS_LOG_LEVEL"))
		opts, err := OptionsFromEnv()
		require.NoError(t, err)
		d := NewDispatcher(opts...)
		assert.Equal(t, defaultName, d.name)
		assert.Equal(t, defaultLogLevel, d.logLevel)
	})

	t.Run("set", func(t *testing.T) {
		t.Setenv("EBUS_NAME", "hud")
		t.Setenv("EBUS_LOG_LEVEL", "5")
		opts, err := OptionsFromEnv()
		require.NoError(t, err)
		d := NewDispatcher(opts...)
		assert.Equal(t, "hud", d.name)
		assert.Equal(t, glog.Level(5), d.logLevel)
	})

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("EBUS_LOG_LEVEL", "loud")
		_, err := OptionsFromEnv()
		assert.Error(t, err)
	})

	t.Run("negative", func(t *testing.T) {
		t.Setenv("EBUS_LOG_LEVEL", "-1")
		_, err := OptionsFromEnv()
		assert.Error(t, err)
	})
}
