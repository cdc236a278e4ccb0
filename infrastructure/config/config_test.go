package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"ui_automation/domain/entities"
)

func TestParseDriver(t *testing.T) {
	t.Parallel()

	for input, expected := range map[string]Driver{
		"memory":      DriverMemory,
		" Playwright": DriverPlaywright,
		"SELENIUM":    DriverSelenium,
	} {
		d, err := ParseDriver(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, d)
	}
	_, err := ParseDriver("lynx")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	t.Parallel()

	base := NewConfig()
	applied := base.Apply(Config{
		Timeout:     entities.NullDurationFrom(time.Second),
		Driver:      null.StringFrom(""),
		Headless:    null.BoolFrom(false),
		Descriptors: null.StringFrom("ui.yaml"),
	})

	assert.Equal(t, entities.NullDurationFrom(time.Second), applied.Timeout)
	assert.Equal(t, base.RetryInterval, applied.RetryInterval)
	assert.Equal(t, "memory", applied.Driver.String)
	assert.Equal(t, null.BoolFrom(false), applied.Headless)
	assert.Equal(t, "ui.yaml", applied.Descriptors.String)
}

func TestSearchOptionsOnlyCarriesSetValues(t *testing.T) {
	t.Parallel()

	opts := NewConfig().SearchOptions()
	assert.False(t, opts.Timeout.Valid)
	assert.False(t, opts.RetryInterval.Valid)
	assert.False(t, opts.Visibility.Valid)
	assert.False(t, opts.Safely.Valid)

	cfg := NewConfig().Apply(Config{
		RetryInterval: entities.NullDurationFrom(50 * time.Millisecond),
		Visibility:    entities.NullVisibilityFrom(entities.VisibilityAny),
	})
	opts = cfg.SearchOptions()
	assert.False(t, opts.Timeout.Valid)
	assert.Equal(t, 50*time.Millisecond, opts.RetryIntervalValue())
	assert.Equal(t, entities.VisibilityAny, opts.VisibilityValue())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LOCATOR_TIMEOUT", "750ms")
	t.Setenv("LOCATOR_VISIBILITY", "hidden")
	t.Setenv("BROWSER_DRIVER", "selenium")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, entities.NullDurationFrom(750*time.Millisecond), cfg.Timeout)
	assert.Equal(t, entities.NullVisibilityFrom(entities.VisibilityHidden), cfg.Visibility)
	assert.Equal(t, DriverSelenium, cfg.BrowserDriver())
	assert.Equal(t, null.BoolFrom(false), cfg.Headless)
	assert.False(t, cfg.RetryInterval.Valid)
	assert.Equal(t, entities.DefaultRetryInterval, cfg.RetryInterval.Duration)
}

func TestLoadFromDotEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("LOCATOR_DESCRIPTORS=pages.yaml\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("LOCATOR_DESCRIPTORS")
		_ = os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "pages.yaml", cfg.Descriptors.String)
	assert.Equal(t, "debug", cfg.LogLevel.String)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name, key, value string
	}{
		{name: "driver", key: "BROWSER_DRIVER", value: "lynx"},
		{name: "duration", key: "LOCATOR_TIMEOUT", value: "soon"},
		{name: "visibility", key: "LOCATOR_VISIBILITY", value: "blurry"},
		{name: "retry", key: "LOCATOR_RETRY_INTERVAL", value: "0s"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
			assert.Error(t, err)
		})
	}
}
