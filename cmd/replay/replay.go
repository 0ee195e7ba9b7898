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

package replay

import (
	"fmt"
	"io"
	"os"

	"github.com/jasonish/idsdetect/config"
	"github.com/jasonish/idsdetect/detect/keywords"
	"github.com/jasonish/idsdetect/eve"
	"github.com/jasonish/idsdetect/log"
	"github.com/jasonish/idsdetect/metrics"
	"github.com/jasonish/idsdetect/pcap"
	"github.com/jasonish/idsdetect/replay"
	"github.com/jasonish/idsdetect/rules"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var flagset *pflag.FlagSet

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: idsdetect replay [options] <pcap files...>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flagset.PrintDefaults()
	fmt.Fprintln(os.Stderr)
}

func openOutput(filename string) (io.WriteCloser, error) {
	if filename == "" || filename == "-" {
		return os.Stdout, nil
	}
	return os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
}

func replayFile(engine *replay.Engine, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	reader, err := pcap.NewReader(file)
	if err != nil {
		return errors.Wrap(err, filename)
	}
	log.Info("Reading %s (link type %s)", filename, reader.LinkType())
	return engine.Run(reader)
}

func Main(args []string) {
	flagset = pflag.NewFlagSet("replay", 0)
	flagset.Usage = usage

	configFilename := flagset.StringP("config", "c", "", "Configuration file")
	flagset.StringSliceP("rule-files", "r", nil, "Rule files, directories or globs")
	flagset.StringP("output", "o", "", "Alert output filename (- for stdout)")
	flagset.String("log-level", "", "Log level (error, warning, info, debug)")
	enableMetrics := flagset.Bool("metrics", false, "Log metrics on exit")
	verbose := flagset.BoolP("verbose", "v", false, "Verbose output")
	if err := flagset.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	conf, err := config.Load(*configFilename, flagset)
	if err != nil {
		log.Fatal(err)
	}
	if *enableMetrics {
		conf.Metrics.Enabled = true
	}

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)
	if *verbose {
		log.SetLevel(log.DEBUG)
	}

	if len(flagset.Args()) == 0 {
		usage()
		os.Exit(1)
	}
	if len(conf.RuleFiles) == 0 {
		log.Fatal("No rule files provided.")
	}

	reg, err := keywords.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}

	collector := metrics.NewCollector()

	ruleMap := rules.NewRuleMap(reg)
	if err := ruleMap.Load(conf.RuleFiles); err != nil {
		log.Fatal(err)
	}
	defer ruleMap.Free()
	collector.RulesLoaded.Set(float64(ruleMap.Len()))
	collector.RulesFailed.Set(float64(ruleMap.Failed))
	if ruleMap.Len() == 0 {
		log.Fatal("No rules loaded.")
	}

	output, err := openOutput(conf.Output)
	if err != nil {
		log.Fatal(err)
	}
	defer output.Close()

	engine := replay.New(reg, ruleMap, collector, eve.NewWriter(output))
	for _, filename := range flagset.Args() {
		if err := replayFile(engine, filename); err != nil {
			log.Error("Failed to replay %s: %v", filename, err)
		}
	}

	if conf.Metrics.Enabled {
		collector.LogSummary()
	}
}
