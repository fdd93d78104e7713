package config

import "github.com/spf13/viper"

// NewStatic builds an IConfig from fixed values without reading the
// environment. Tests and embedders use it.
func NewStatic(values map[string]interface{}) IConfig {
	cfg := viper.New()
	for k, v := range values {
		cfg.Set(k, v)
	}
	return &config{cfg: cfg}
}
