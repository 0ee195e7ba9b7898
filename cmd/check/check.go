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

package check

import (
	"fmt"
	"os"
	"strings"

	"github.com/jasonish/idsdetect/config"
	"github.com/jasonish/idsdetect/detect"
	"github.com/jasonish/idsdetect/detect/keywords"
	"github.com/jasonish/idsdetect/log"
	"github.com/jasonish/idsdetect/rules"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var flagset *pflag.FlagSet

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: idsdetect check [options] [rule files...]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flagset.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Example:
    idsdetect check -o 'stream_size:client,>,8' local.rules

`)
}

// CheckOption sets up a single "keyword:argument" option on a scratch
// signature and returns the compiled match data formatted as text.
func CheckOption(reg *detect.Registry, option string) (string, error) {
	parts := strings.SplitN(option, ":", 2)
	if len(parts) != 2 {
		return "", errors.Errorf("expected keyword:argument, got %q", option)
	}
	sig := &detect.Signature{}
	defer sig.Free(reg)
	if err := reg.Setup(sig, strings.TrimSpace(parts[0]), parts[1]); err != nil {
		return "", err
	}
	return fmt.Sprint(sig.Matches[0].Data), nil
}

func Main(args []string) {
	var options []string

	flagset = pflag.NewFlagSet("check", 0)
	flagset.Usage = usage
	configFilename := flagset.StringP("config", "c", "", "Configuration file")
	flagset.StringArrayVarP(&options, "option", "o", nil,
		"Keyword option to check (keyword:argument)")
	verbose := flagset.BoolP("verbose", "v", false, "Verbose output")
	if err := flagset.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	if *verbose {
		log.SetLevel(log.DEBUG)
	}

	reg, err := keywords.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}

	failed := 0

	for _, option := range options {
		data, err := CheckOption(reg, option)
		if err != nil {
			fmt.Printf("%s: error: %v\n", option, err)
			failed++
			continue
		}
		fmt.Printf("%s: ok (%s)\n", option, data)
	}

	paths := flagset.Args()
	if len(paths) == 0 && *configFilename != "" {
		conf, err := config.Load(*configFilename, nil)
		if err != nil {
			log.Fatal(err)
		}
		paths = conf.RuleFiles
	}

	if len(paths) == 0 && len(options) == 0 {
		usage()
		os.Exit(1)
	}

	if len(paths) > 0 {
		ruleMap := rules.NewRuleMap(reg)
		if err := ruleMap.Load(paths); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d rules loaded, %d failed\n", ruleMap.Len(),
			ruleMap.Failed)
		failed += ruleMap.Failed
		ruleMap.Free()
	}

	if failed > 0 {
		os.Exit(1)
	}
}
