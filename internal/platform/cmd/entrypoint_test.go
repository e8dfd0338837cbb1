package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	DBPath string `env:"CMD_TEST_DB_PATH" envDefault:"data/test.sqlite"`
	Locale string `env:"CMD_TEST_LOCALE" envDefault:"en-US"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_DB_PATH", "env.sqlite")
	t.Setenv("CMD_TEST_LOCALE", "pt-BR")

	var cfg testConfig
	require.NoError(t, ParseConfig(&cfg))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "db path")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale")
	require.NoError(t, ParseArgs(fs, []string{"-db", "flag.sqlite"}))

	assert.Equal(t, "flag.sqlite", cfg.DBPath)
	assert.Equal(t, "pt-BR", cfg.Locale)
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	var cfg *testConfig
	assert.Error(t, ParseConfig(cfg))
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	assert.Error(t, ParseArgs(nil, []string{}))
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	assert.Error(t, RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }))
	assert.Error(t, RunWithTelemetry(context.Background(), ServiceTimeline, nil))
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("MINDCHART_OTEL_ENDPOINT", "")
	want := errors.New("run failed")

	called := false
	err := RunWithTelemetry(context.Background(), ServiceTimeline, func(context.Context) error {
		called = true
		return want
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, want)
}
