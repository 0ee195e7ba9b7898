/* Copyright (c) 2016 Jason Ish
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions
 * are met:
 *
 * 1. Redistributions of source code must retain the above copyright
 *    notice, this list of conditions and the following disclaimer.
 * 2. Redistributions in binary form must reproduce the above copyright
 *    notice, this list of conditions and the following disclaimer in the
 *    documentation and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED ``AS IS'' AND ANY EXPRESS OR IMPLIED
 * WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
 * DISCLAIMED. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY DIRECT,
 * INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES
 * (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
 * SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION)
 * HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT,
 * STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING
 * IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const EnvPrefix = "IDSDETECT"

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	RuleFiles []string      `yaml:"rule-files"`
	LogLevel  string        `yaml:"log-level"`
	Output    string        `yaml:"output"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// New returns a viper instance with defaults and the environment bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("rule-files", []string{})
	v.SetDefault("log-level", "info")
	v.SetDefault("output", "-")
	v.SetDefault("metrics.enabled", false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds the effective configuration from the optional config file,
// the environment and any flags set on the flagset. Flags are bound by
// their long name, so a "rule-files" flag overrides the "rule-files" key.
func Load(filename string, flagset *pflag.FlagSet) (*Config, error) {
	v := New()

	if flagset != nil {
		if err := v.BindPFlags(flagset); err != nil {
			return nil, errors.Wrap(err, "failed to bind flags")
		}
	}

	if filename != "" {
		v.SetConfigFile(filename)
		if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", filename)
		}
	}

	return &Config{
		RuleFiles: v.GetStringSlice("rule-files"),
		LogLevel:  v.GetString("log-level"),
		Output:    v.GetString("output"),
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
		},
	}, nil
}
