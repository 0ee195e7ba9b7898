/* Copyright (c) 2017 Jason Ish
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
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const testConfig = `
rule-files:
  - /etc/idsdetect/stream-size.rules
  - /etc/idsdetect/rules.d
log-level: debug
metrics:
  enabled: true
`

func writeConfig(t *testing.T, name string, contents string) string {
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, config.RuleFiles)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "-", config.Output)
	assert.False(t, config.Metrics.Enabled)
}

func TestLoadFile(t *testing.T) {
	config, err := Load(writeConfig(t, "idsdetect.yaml", testConfig), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/etc/idsdetect/stream-size.rules",
		"/etc/idsdetect/rules.d",
	}, config.RuleFiles)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "-", config.Output)
	assert.True(t, config.Metrics.Enabled)
}

func TestLoadFileWithoutExtension(t *testing.T) {
	config, err := Load(writeConfig(t, "idsdetect.conf", testConfig), nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("IDSDETECT_LOG_LEVEL", "warning")
	t.Setenv("IDSDETECT_METRICS_ENABLED", "true")
	t.Setenv("IDSDETECT_OUTPUT", "/var/log/idsdetect/eve.json")

	config, err := Load(writeConfig(t, "idsdetect.yaml", testConfig), nil)
	require.NoError(t, err)
	assert.Equal(t, "warning", config.LogLevel)
	assert.Equal(t, "/var/log/idsdetect/eve.json", config.Output)
	assert.True(t, config.Metrics.Enabled)
}

func TestLoadFlags(t *testing.T) {
	flagset := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagset.String("log-level", "", "")
	flagset.String("output", "", "")
	flagset.StringSlice("rule-files", nil, "")
	require.NoError(t, flagset.Parse([]string{
		"--output", "alerts.json",
		"--rule-files", "a.rules,b.rules",
	}))

	config, err := Load(writeConfig(t, "idsdetect.yaml", testConfig), flagset)
	require.NoError(t, err)
	assert.Equal(t, "alerts.json", config.Output)
	assert.Equal(t, []string{"a.rules", "b.rules"}, config.RuleFiles)

	// Unset flags do not override the file.
	assert.Equal(t, "debug", config.LogLevel)
}

func TestToYAML(t *testing.T) {
	config := &Config{
		RuleFiles: []string{"local.rules"},
		LogLevel:  "info",
		Output:    "-",
		Metrics:   MetricsConfig{Enabled: true},
	}
	buf, err := config.ToYAML()
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(buf, &decoded))
	assert.Equal(t, *config, decoded)
	assert.Contains(t, string(buf), "rule-files:")
}
