package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flagValues struct {
	producers, consumers, messages, buffer int
	mode, format, level                    string
	pMin, pMax, cMin, cMax, interval       time.Duration
	seed                                   uint64
}

func setFastFlags(t *testing.T) {
	t.Helper()

	prev := flagValues{
		numProducers, numConsumers, numMessages, bufferSize,
		deliveryMode, reportFormat, logLevel,
		producerDelayMin, producerDelayMax, consumerDelayMin, consumerDelayMax, reportInterval,
		seed,
	}
	t.Cleanup(func() {
		numProducers, numConsumers, numMessages, bufferSize = prev.producers, prev.consumers, prev.messages, prev.buffer
		deliveryMode, reportFormat, logLevel = prev.mode, prev.format, prev.level
		producerDelayMin, producerDelayMax = prev.pMin, prev.pMax
		consumerDelayMin, consumerDelayMax = prev.cMin, prev.cMax
		reportInterval = prev.interval
		seed = prev.seed
	})

	numProducers, numConsumers, numMessages, bufferSize = 3, 2, 4, 100
	deliveryMode = "broadcast"
	producerDelayMin, producerDelayMax = 0, time.Millisecond
	consumerDelayMin, consumerDelayMax = 0, time.Millisecond
	reportInterval = 0
	seed = 5
	logLevel = "error"
}

func TestRunRoot_Text(t *testing.T) {
	setFastFlags(t)
	reportFormat = "text"

	var out bytes.Buffer
	require.NoError(t, runRoot(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 13)
	for _, line := range lines[:12] {
		assert.True(t, strings.HasPrefix(line, "Message "), line)
		assert.True(t, strings.HasSuffix(line, " ms"), line)
	}
	assert.True(t, strings.HasPrefix(lines[12], "Completed 12/12 messages"))
}

func TestRunRoot_NoConsumers(t *testing.T) {
	setFastFlags(t)
	reportFormat = "text"
	numConsumers = 0

	var out bytes.Buffer
	require.NoError(t, runRoot(&out))

	assert.NotContains(t, out.String(), "took")
	assert.Contains(t, out.String(), "Completed 0/3 messages")
}

func TestRunRoot_InvalidInput(t *testing.T) {
	setFastFlags(t)

	reportFormat = "csv"
	assert.Error(t, runRoot(&bytes.Buffer{}))

	reportFormat = "text"
	deliveryMode = "multicast"
	assert.Error(t, runRoot(&bytes.Buffer{}))

	deliveryMode = "broadcast"
	numProducers = -1
	assert.ErrorContains(t, runRoot(&bytes.Buffer{}), "invalid config")

	numProducers = 1
	logLevel = "loud"
	assert.ErrorContains(t, runRoot(&bytes.Buffer{}), "invalid log level")
}

func TestReadEnvConfig(t *testing.T) {
	t.Setenv("FANOUT_PRODUCERS", "7")
	t.Setenv("FANOUT_MODE", "queue")
	t.Setenv("FANOUT_REPORT_INTERVAL", "250ms")

	env, err := readEnvConfig()
	require.NoError(t, err)

	assert.Equal(t, 7, env.Producers)
	assert.Equal(t, 5, env.Consumers)
	assert.Equal(t, 5, env.Messages)
	assert.Equal(t, 100, env.Buffer)
	assert.Equal(t, "queue", env.Mode)
	assert.Equal(t, 250*time.Millisecond, env.ReportInterval)
}

func TestRootFlags_Defaults(t *testing.T) {
	for name, want := range map[string]string{
		"producers": "10",
		"consumers": "5",
		"messages":  "5",
		"buffer":    "100",
		"mode":      "broadcast",
	} {
		f := rootCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}

	assert.Equal(t, "p", rootCmd.Flags().Lookup("producers").Shorthand)
	assert.Equal(t, "c", rootCmd.Flags().Lookup("consumers").Shorthand)
	assert.Equal(t, "m", rootCmd.Flags().Lookup("messages").Shorthand)
}
