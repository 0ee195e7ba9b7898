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
	"bufio"
	"io"
	"strconv"
	"strings"
)

const reasonIncomplete = "incomplete rule"

var validDirections = map[string]bool{
	"->": true,
	"<>": true,
	"<-": true,
	"=>": true,
}

// Remove leading and trailing quotes from a string.
func trimQuotes(buf string) string {
	if len(buf) >= 2 && buf[0] == '"' && buf[len(buf)-1] == '"' {
		return buf[1 : len(buf)-1]
	}
	return buf
}

func splitAt(buf string, sep string) (string, string) {
	var leading string
	var trailing string

	parts := strings.SplitN(buf, sep, 2)
	if len(parts) > 1 {
		trailing = strings.TrimSpace(parts[1])
	}
	leading = strings.TrimSpace(parts[0])

	return leading, trailing
}

// Parse the next rule option from the provided rule.
//
// The option, argument and the remainder of the rule are returned.
func parseOption(rule string) (string, string, string, error) {
	rule = strings.TrimLeft(rule, " \t")

	optend := strings.IndexAny(rule, ";:")
	if optend < 0 {
		return "", "", rule, newParseError(rule, "unterminated option")
	}
	option := strings.TrimSpace(rule[:optend])
	hasArg := rule[optend] == ':'
	rule = rule[optend+1:]

	if !hasArg {
		return option, "", rule, nil
	}

	if len(rule) == 0 {
		return option, "", rule, newParseError(option, "no argument")
	}

	escaped := false
	argend := strings.IndexFunc(rule, func(r rune) bool {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			return true
		}
		return false
	})
	if argend < 0 {
		return option, "", rule, newParseError(option,
			"unterminated option argument")
	}

	arg := trimQuotes(strings.TrimSpace(rule[:argend]))
	return option, arg, rule[argend+1:], nil
}

func parseNumber(option string, arg string) (uint64, error) {
	val, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, newParseError(arg, "failed to parse %s", option)
	}
	return val, nil
}

// Parse an IDS rule from the provided string buffer.
func Parse(buf string) (Rule, error) {
	rule := Rule{
		Raw: buf,
	}

	buf = strings.TrimLeft(buf, " \t")

	// A leading # disables the rule but it is still parsed.
	if strings.HasPrefix(buf, "#") {
		buf = strings.TrimLeft(strings.TrimPrefix(buf, "#"), " \t")
	} else {
		rule.Enabled = true
	}

	header := []*string{
		&rule.Action,
		&rule.Proto,
		&rule.SourceAddr,
		&rule.SourcePort,
		&rule.Direction,
		&rule.DestAddr,
		&rule.DestPort,
	}
	rem := buf
	for _, field := range header {
		*field, rem = splitAt(rem, " ")
		if len(rem) == 0 {
			return rule, newParseError(rule.Raw, reasonIncomplete)
		}
	}
	if !validDirections[rule.Direction] {
		return rule, newParseError(rule.Direction, "invalid direction")
	}

	if rem[0] != '(' {
		return rule, newParseError(rem, "expected (")
	}
	buf = rem[1:]

	for {
		buf = strings.TrimLeft(buf, " \t")
		if len(buf) == 0 {
			return rule, newParseError(rule.Raw, reasonIncomplete)
		}
		if buf[0] == ')' {
			break
		}

		option, arg, rest, err := parseOption(buf)
		if err != nil {
			if perr, ok := err.(*RuleParseError); ok && len(rest) == 0 {
				perr.Reason = reasonIncomplete
			}
			return rule, err
		}
		buf = rest

		rule.Options = append(rule.Options, RuleOption{option, arg})

		switch option {
		case "msg":
			rule.Msg = arg
		case "sid":
			if rule.Sid, err = parseNumber(option, arg); err != nil {
				return rule, err
			}
		case "gid":
			if rule.Gid, err = parseNumber(option, arg); err != nil {
				return rule, err
			}
		case "rev":
			if rule.Rev, err = parseNumber(option, arg); err != nil {
				return rule, err
			}
		}
	}

	return rule, nil
}

// RuleReader parses rules one by one from an underlying reader.
type RuleReader struct {
	reader *bufio.Reader

	// Line number of the last line read.
	Line int
}

// NewRuleReader creates a new RuleReader reading from a reader.
func NewRuleReader(reader io.Reader) *RuleReader {
	return &RuleReader{
		reader: bufio.NewReader(reader),
	}
}

func (r *RuleReader) readLine() (string, error) {
	bytes, err := r.reader.ReadBytes('\n')
	if err != nil && len(bytes) == 0 {
		return "", err
	}
	r.Line++
	return strings.TrimSpace(string(bytes)), nil
}

// Next returns the next rule read from the reader. Empty lines and commented
// out lines are skipped. Any other line that doesn't parse as a rule is
// returned as a *RuleParseError, after which reading can continue.
func (r *RuleReader) Next() (Rule, error) {
	var ruleString strings.Builder

	for {
		line, err := r.readLine()
		if err != nil {
			if ruleString.Len() > 0 {
				return Rule{}, newParseError(ruleString.String(),
					reasonIncomplete)
			}
			return Rule{}, err
		}

		if len(line) == 0 {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			ruleString.WriteString(line[:len(line)-1])
			continue
		}
		ruleString.WriteString(line)

		rule, err := Parse(ruleString.String())
		if err != nil {
			// Plain comments look like broken disabled rules.
			if strings.HasPrefix(ruleString.String(), "#") {
				ruleString.Reset()
				continue
			}
			return Rule{}, err
		}
		return rule, nil
	}
}

// ParseReader parses multiple rules from a reader, skipping the ones that
// fail to parse.
func ParseReader(reader io.Reader) ([]Rule, error) {
	rules := make([]Rule, 0)

	ruleReader := NewRuleReader(reader)

	for {
		rule, err := ruleReader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			if _, ok := err.(*RuleParseError); ok {
				continue
			}
			return rules, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}
