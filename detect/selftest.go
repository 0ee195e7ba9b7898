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

package detect

import (
	"fmt"

	"github.com/jasonish/idsdetect/log"
)

// SelfTest is a named scenario a keyword ships to verify its own parser
// and matcher.
type SelfTest struct {
	Name string
	Fn   func() error
}

type SelfTestResult struct {
	Passed   int
	Failed   int
	Failures []string
}

func (r SelfTestResult) Ok() bool {
	return r.Failed == 0
}

// RunSelfTests runs the self tests of every registered keyword.
func RunSelfTests(reg *Registry) SelfTestResult {
	result := SelfTestResult{}
	for _, kw := range reg.Keywords() {
		for _, test := range kw.SelfTests() {
			if err := runSelfTest(test); err != nil {
				log.Error("%s: %s failed: %v", kw.Name(), test.Name, err)
				result.Failed++
				result.Failures = append(result.Failures,
					fmt.Sprintf("%s/%s: %v", kw.Name(), test.Name, err))
				continue
			}
			log.Debug("%s: %s passed", kw.Name(), test.Name)
			result.Passed++
		}
	}
	return result
}

func runSelfTest(test SelfTest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return test.Fn()
}
