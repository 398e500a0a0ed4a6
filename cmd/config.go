/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig holds flag defaults that can be overridden from the environment
type envConfig struct {
	Producers int    `env:"FANOUT_PRODUCERS" env-default:"10"`
	Consumers int    `env:"FANOUT_CONSUMERS" env-default:"5"`
	Messages  int    `env:"FANOUT_MESSAGES" env-default:"5"`
	Buffer    int    `env:"FANOUT_BUFFER" env-default:"100"`
	Mode      string `env:"FANOUT_MODE" env-default:"broadcast"`
	LogLevel  string `env:"FANOUT_LOG_LEVEL" env-default:"info"`

	ReportInterval time.Duration `env:"FANOUT_REPORT_INTERVAL" env-default:"5s"`
}

func readEnvConfig() (envConfig, error) {
	var c envConfig
	err := cleanenv.ReadEnv(&c)
	return c, err
}
