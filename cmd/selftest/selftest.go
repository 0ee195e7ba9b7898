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

package selftest

import (
	"fmt"
	"os"

	"github.com/jasonish/idsdetect/detect"
	"github.com/jasonish/idsdetect/detect/keywords"
	"github.com/jasonish/idsdetect/log"
	"github.com/spf13/pflag"
)

func Main(args []string) {
	flagset := pflag.NewFlagSet("selftest", pflag.ExitOnError)
	verbose := flagset.BoolP("verbose", "v", false, "Log every test")
	flagset.Parse(args)

	if *verbose {
		log.SetLevel(log.DEBUG)
	}

	reg, err := keywords.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}

	result := detect.RunSelfTests(reg)
	for _, failure := range result.Failures {
		fmt.Printf("FAIL: %s\n", failure)
	}
	fmt.Printf("%d passed, %d failed\n", result.Passed, result.Failed)

	if !result.Ok() {
		os.Exit(1)
	}
}
