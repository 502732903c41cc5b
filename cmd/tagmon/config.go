// Config loading for the tagmon CLI.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "tagmon"
	configFileType = "yaml"

	cfgKeyPollInterval  = "poll_interval"
	cfgKeyCreateTimeout = "create_timeout"
	cfgKeyOpTimeout     = "op_timeout"
	cfgKeyJournal       = "journal"
	cfgKeyAttributes    = "attributes"
)

// loadConfig reads tagmon.yaml through Viper. A missing config file is
// not an error; defaults cover every key.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyPollInterval, 5*time.Millisecond)
	v.SetDefault(cfgKeyCreateTimeout, 5*time.Second)
	v.SetDefault(cfgKeyOpTimeout, 2*time.Second)
	v.SetDefault(cfgKeyJournal, "")
	v.SetDefault(cfgKeyAttributes, "elem_size=4&elem_count=1")
	v.SetEnvPrefix("TAGMON")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
