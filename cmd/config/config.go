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
	"fmt"
	"os"

	"github.com/jasonish/idsdetect/config"
	"github.com/jasonish/idsdetect/log"
	"github.com/spf13/pflag"
)

func usage(flagset *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr,
		"Usage: idsdetect config [-c <config>] [options]\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Prints the configuration after files, environment\n")
	fmt.Fprintf(os.Stderr, "and flags are applied.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flagset.PrintDefaults()
}

func Main(args []string) {
	flagset := pflag.NewFlagSet("idsdetect config", pflag.ExitOnError)
	flagset.Usage = func() {
		usage(flagset)
	}
	configFilename := flagset.StringP("config", "c", "", "Configuration file")
	flagset.StringSliceP("rule-files", "r", nil, "Rule files, directories or globs")
	flagset.StringP("output", "o", "", "Alert output filename")
	flagset.String("log-level", "", "Log level")
	flagset.Parse(args)

	conf, err := config.Load(*configFilename, flagset)
	if err != nil {
		log.Fatal(err)
	}

	buf, err := conf.ToYAML()
	if err != nil {
		log.Fatal(err)
	}
	os.Stdout.Write(buf)
}
