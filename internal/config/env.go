package config

import "github.com/caarlos0/env/v11"

// applyEnvVarOverrides overlays KASUMI_CONFIG_* environment variables onto the
// config.  Variables are declared via `env` tags next to the yaml tags; env
// parsing only touches fields whose variable is actually set, so file and
// default values survive.
//
// KASUMI_CONFIG_PATH is also honoured but handled before loading, since it
// points at the config file itself.
func applyEnvVarOverrides(c *Config) error {
	return env.Parse(c)
}
