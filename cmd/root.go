/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/streamfold/fanout-bench/internal/report"
	"github.com/streamfold/fanout-bench/internal/util"
	"github.com/streamfold/fanout-bench/internal/worker"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fanout-bench",
	Short: "Measure emit-to-first-consumption latency over a broadcast channel",
	Long: `Runs producers that publish uniquely identified messages onto a shared
broadcast channel and consumers that all observe every message, claim each one
exactly once among themselves and record when it was first consumed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRoot(cmd.OutOrStdout()); err != nil {
			log.Fatal(err)
		}
	},
}

var numProducers int
var numConsumers int
var numMessages int
var bufferSize int
var deliveryMode string

var producerDelayMin time.Duration
var producerDelayMax time.Duration
var consumerDelayMin time.Duration
var consumerDelayMax time.Duration

var reportFormat string
var reportInterval time.Duration
var seed uint64

var logLevel string
var logJSON bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	env, err := readEnvConfig()
	if err != nil {
		log.Fatal(err)
	}

	rootCmd.Flags().IntVarP(&numProducers, "producers", "p", env.Producers, "Number of producers")
	rootCmd.Flags().IntVarP(&numConsumers, "consumers", "c", env.Consumers, "Number of consumers")
	rootCmd.Flags().IntVarP(&numMessages, "messages", "m", env.Messages, "Number of messages per producer")
	rootCmd.Flags().IntVar(&bufferSize, "buffer", env.Buffer, "Channel capacity per subscriber")
	rootCmd.Flags().StringVar(&deliveryMode, "mode", env.Mode, "Delivery mode: broadcast (every consumer sees every message) or queue (one consumer per message)")

	rootCmd.Flags().DurationVar(&producerDelayMin, "producer-delay-min", 100*time.Millisecond, "Lower bound of the delay before each send")
	rootCmd.Flags().DurationVar(&producerDelayMax, "producer-delay-max", 500*time.Millisecond, "Upper bound (exclusive) of the delay before each send")
	rootCmd.Flags().DurationVar(&consumerDelayMin, "consumer-delay-min", 200*time.Millisecond, "Lower bound of the simulated processing time")
	rootCmd.Flags().DurationVar(&consumerDelayMax, "consumer-delay-max", 600*time.Millisecond, "Upper bound (exclusive) of the simulated processing time")

	rootCmd.Flags().StringVar(&reportFormat, "report-format", string(report.FormatLog), "Latency report format: log, text or otlp-json")
	rootCmd.Flags().DurationVar(&reportInterval, "report-interval", env.ReportInterval, "Interval to report statistics while running, 0 disables")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the random delays, 0 picks a random one")

	rootCmd.Flags().StringVar(&logLevel, "log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&logJSON, "log-json", false, "Log as JSON instead of the console format")
}

func buildConfig() (worker.Config, error) {
	mode, err := worker.ParseMode(deliveryMode)
	if err != nil {
		return worker.Config{}, err
	}

	return worker.Config{
		NumProducers:        numProducers,
		NumConsumers:        numConsumers,
		MessagesPerProducer: numMessages,
		ChannelCapacity:     bufferSize,
		Mode:                mode,
		ProducerDelay:       util.DelayRange{Min: producerDelayMin, Max: producerDelayMax},
		ConsumerDelay:       util.DelayRange{Min: consumerDelayMin, Max: consumerDelayMax},
		ReportInterval:      reportInterval,
		Seed:                seed,
	}, nil
}

func runRoot(out io.Writer) error {
	zl, err := newLogger(logLevel, logJSON)
	if err != nil {
		return err
	}
	defer func() {
		// stdout can't always be synced, nothing to do about it
		_ = zl.Sync()
	}()

	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	workers, err := worker.New(cfg, zl)
	if err != nil {
		return err
	}

	zl.Info("Starting with producers and consumers",
		zap.Int("producers", cfg.NumProducers),
		zap.Int("consumers", cfg.NumConsumers),
	)

	res, err := workers.Run(report.New(format, out, zl))
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	zl.Info("Run finished",
		zap.Uint64("published", res.Published),
		zap.Uint64("send_failures", res.SendFailures),
		zap.Uint64("claimed", res.Claimed),
		zap.Uint64("skipped", res.Skipped),
		zap.Uint64("lagged", res.Lagged),
		zap.Int("finalized", res.Finalized),
		zap.Duration("elapsed", res.Elapsed),
	)

	return nil
}
