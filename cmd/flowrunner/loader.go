package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/torosent/flowrunner/internal/flowconfig"
)

// loadFlow reads a Flow definition from a JSON or YAML file, detected by
// extension via viper (mirroring internal/config.Loader's use of viper for
// file-based configuration).
func loadFlow(path string) (flowconfig.Flow, error) {
	var flow flowconfig.Flow
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return flow, fmt.Errorf("read flow file: %w", err)
	}
	if err := v.Unmarshal(&flow); err != nil {
		return flow, fmt.Errorf("parse flow file: %w", err)
	}
	return flow, nil
}

// loadRuntimeConfig reads the engine's runtime Config from a JSON or YAML
// file.
func loadRuntimeConfig(path string) (flowconfig.Config, error) {
	var cfg flowconfig.Config
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
