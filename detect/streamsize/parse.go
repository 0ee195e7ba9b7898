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

// Package streamsize implements the stream_size rule keyword. It matches on
// the number of bytes a TCP session side has sent but not yet had
// acknowledged:
//
//	stream_size:<side>,<operator>,<threshold>;
//
// where side is one of client, server, both or either, operator one of
// <, <=, >, >=, != or = and threshold a decimal number.
package streamsize

import (
	"fmt"
	"math"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/jasonish/idsdetect/detect"
	"github.com/jasonish/idsdetect/log"
	"github.com/pkg/errors"
)

const KeywordName = "stream_size"

const parseRegex = `^\s*([^\s,]+)\s*,\s*([^\s,]+)\s*,\s*([0-9]+)\s*$`

var (
	ErrGrammar         = errors.New("stream_size grammar compilation failed")
	ErrNotRegistered   = errors.New("stream_size keyword not registered")
	ErrInvalidOption   = errors.New("invalid stream_size option")
	ErrInvalidSide     = errors.New("invalid stream_size side")
	ErrConflictingSide = errors.New("stream_size side already set")
)

var (
	grammarOnce sync.Once
	grammarErr  error
	grammar     atomic.Pointer[regexp.Regexp]
)

// Side selects which direction(s) of the session are compared.
type Side uint8

const (
	SideServer Side = 1 << iota
	SideClient
	SideBoth
	SideEither
)

func (s Side) String() string {
	switch s {
	case SideServer:
		return "server"
	case SideClient:
		return "client"
	case SideBoth:
		return "both"
	case SideEither:
		return "either"
	}
	return fmt.Sprintf("side(0x%02x)", uint8(s))
}

// Mode is the comparison operator.
type Mode uint8

const (
	ModeLT Mode = iota + 1
	ModeLEQ
	ModeEQ
	ModeNEQ
	ModeGEQ
	ModeGT
)

func (m Mode) String() string {
	switch m {
	case ModeLT:
		return "<"
	case ModeLEQ:
		return "<="
	case ModeEQ:
		return "="
	case ModeNEQ:
		return "!="
	case ModeGEQ:
		return ">="
	case ModeGT:
		return ">"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Data is the parsed form of a stream_size option. It is immutable once
// returned by Parse.
type Data struct {
	Side Side
	Mode Mode
	Size uint16
}

func (d *Data) Keyword() detect.KeywordID {
	return detect.KeywordStreamSize
}

// String formats the option the way it is written in a rule.
func (d *Data) String() string {
	return fmt.Sprintf("%s,%s,%d", d.Side, d.Mode, d.Size)
}

func (d *Data) setSide(side Side) error {
	if d.Side != 0 {
		return errors.Wrapf(ErrConflictingSide, "%s, cannot add %s",
			d.Side, side)
	}
	d.Side = side
	return nil
}

func compileGrammar(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(ErrGrammar, "%q: %v", expr, err)
	}
	return re, nil
}

// Register compiles the option grammar. Only the first call does any work;
// later calls return the first call's result. If compilation fails the
// keyword stays unusable and Parse returns ErrNotRegistered.
func Register() error {
	grammarOnce.Do(func() {
		re, err := compileGrammar(parseRegex)
		if err != nil {
			grammarErr = err
			return
		}
		grammar.Store(re)
	})
	return grammarErr
}

// Operators are compared for exact equality, in this order. Anything that
// is not one of them, "=" included, means equality.
func parseMode(token string) Mode {
	switch {
	case token == "<":
		return ModeLT
	case token == "<=":
		return ModeLEQ
	case token == ">":
		return ModeGT
	case token == ">=":
		return ModeGEQ
	case token == "!=":
		return ModeNEQ
	}
	return ModeEQ
}

// parseSize converts the threshold to the 16 bit width the engine uses for
// this field. Larger values are NOT rejected: they wrap modulo 65536, so
// "65536" is 0 and "70000" is 4464. The uint16 arithmetic below does the
// truncation digit by digit, which keeps arbitrarily long input exact.
// truncated reports whether the value was reduced.
func parseSize(value string) (size uint16, truncated bool, err error) {
	if value == "" {
		return 0, false, errors.Wrap(ErrInvalidOption, "missing threshold")
	}
	var wide uint64
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < '0' || c > '9' {
			return 0, false, errors.Wrapf(ErrInvalidOption,
				"threshold %q is not a number", value)
		}
		size = size*10 + uint16(c-'0')
		if !truncated {
			wide = wide*10 + uint64(c-'0')
			if wide > math.MaxUint16 {
				truncated = true
			}
		}
	}
	return size, truncated, nil
}

// Parse converts option text such as "client,>,8" into Data.
func Parse(str string) (*Data, error) {
	re := grammar.Load()
	if re == nil {
		return nil, ErrNotRegistered
	}

	m := re.FindStringSubmatch(str)
	if m == nil {
		return nil, errors.Wrapf(ErrInvalidOption, "%q", str)
	}
	arg, mode, value := m[1], m[2], m[3]

	sd := &Data{
		Mode: parseMode(mode),
	}

	size, truncated, err := parseSize(value)
	if err != nil {
		return nil, err
	}
	if truncated {
		log.Warning("stream_size threshold %s exceeds %d, truncated to %d",
			value, math.MaxUint16, size)
	}
	sd.Size = size

	switch arg {
	case "server":
		err = sd.setSide(SideServer)
	case "client":
		err = sd.setSide(SideClient)
	case "both":
		err = sd.setSide(SideBoth)
	case "either":
		err = sd.setSide(SideEither)
	default:
		err = errors.Wrapf(ErrInvalidSide, "%q", arg)
	}
	if err != nil {
		return nil, err
	}

	return sd, nil
}
