// The MIT License (MIT)
// Copyright (c) 2017 Jason Ish
//
// Permission is hereby granted, free of charge, to any person
// obtaining a copy of this software and associated documentation
// files (the "Software"), to deal in the Software without
// restriction, including without limitation the rights to use, copy,
// modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS
// BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN
// ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ruleparser

import (
	"fmt"
)

// RuleOption is a struct representing an IDS rule option.
type RuleOption struct {
	Option string `json:"option"`
	Args   string `json:"args"`
}

// Rule is a struct representing an IDS rule.
type Rule struct {
	// The raw rule string.
	Raw string

	Enabled bool

	// Header components.
	Action     string
	Proto      string
	SourceAddr string
	SourcePort string
	Direction  string
	DestAddr   string
	DestPort   string

	// List of options in order.
	Options []RuleOption

	// Some options are also pulled out for easy access.
	Msg string
	Sid uint64
	Gid uint64
	Rev uint64
}

// Find returns the arguments of every occurrence of an option, in rule
// order.
func (r *Rule) Find(option string) []string {
	var args []string
	for _, o := range r.Options {
		if o.Option == option {
			args = append(args, o.Args)
		}
	}
	return args
}

// RuleParseError is returned for rule text that does not parse.
type RuleParseError struct {
	Reason string

	// The text being parsed when the error was found.
	Text string
}

func (e *RuleParseError) Error() string {
	if e.Text == "" {
		return e.Reason
	}
	text := e.Text
	if len(text) > 64 {
		text = text[:64] + "..."
	}
	return fmt.Sprintf("%s: %s", e.Reason, text)
}

func newParseError(text string, format string, v ...interface{}) error {
	return &RuleParseError{
		Reason: fmt.Sprintf(format, v...),
		Text:   text,
	}
}

// IsIncomplete returns true if err reports a rule that ended early.
func IsIncomplete(err error) bool {
	perr, ok := err.(*RuleParseError)
	return ok && perr.Reason == reasonIncomplete
}
