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

package streamsize

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/jasonish/idsdetect/detect"
)

var selfTests = []detect.SelfTest{
	{Name: "ParseServerLessThan", Fn: testParseServerLessThan},
	{Name: "ParseInvalidSide", Fn: testParseInvalidSide},
	{Name: "MatchClientGreater", Fn: testMatchClientGreater},
	{Name: "NoMatchClientEqualThreshold", Fn: testNoMatchClientEqualThreshold},
	{Name: "OperatorTable", Fn: testOperatorTable},
	{Name: "BothAndEither", Fn: testBothAndEither},
	{Name: "NoSession", Fn: testNoSession},
}

func clientPacket(nextSeq, lastAck uint32) *detect.Packet {
	return &detect.Packet{
		IPv4: &layers.IPv4{},
		Flow: &detect.Flow{
			Session: &detect.TcpSession{
				Client: detect.TcpStream{NextSeq: nextSeq, LastAck: lastAck},
			},
		},
	}
}

func testParseServerLessThan() error {
	sd, err := Parse("server,<,6")
	if err != nil {
		return err
	}
	if sd.Side != SideServer || sd.Mode != ModeLT || sd.Size != 6 {
		return fmt.Errorf("expected server,<,6, got %s", sd)
	}
	return nil
}

func testParseInvalidSide() error {
	sd, err := Parse("invalidoption,<,6")
	if err == nil {
		return fmt.Errorf("expected error, got %s", sd)
	}
	return nil
}

func testMatchClientGreater() error {
	sd, err := Parse("client,>,8")
	if err != nil {
		return err
	}
	if !MatchPacket(clientPacket(30, 20), sd) {
		return fmt.Errorf("expected match with 10 unacked bytes")
	}
	return nil
}

func testNoMatchClientEqualThreshold() error {
	sd, err := Parse("client,>,8")
	if err != nil {
		return err
	}
	if MatchPacket(clientPacket(28, 20), sd) {
		return fmt.Errorf("unexpected match with 8 unacked bytes")
	}
	return nil
}

func testOperatorTable() error {
	const threshold = 100
	tests := []struct {
		op    string
		below bool
		equal bool
		above bool
	}{
		{"<", true, false, false},
		{"<=", true, true, false},
		{"=", false, true, false},
		{"!=", true, false, true},
		{">=", false, true, true},
		{">", false, false, true},
	}
	for _, test := range tests {
		sd, err := Parse(fmt.Sprintf("client,%s,%d", test.op, threshold))
		if err != nil {
			return err
		}
		for delta, expected := range map[uint32]bool{
			threshold - 1: test.below,
			threshold:     test.equal,
			threshold + 1: test.above,
		} {
			if MatchPacket(clientPacket(1000+delta, 1000), sd) != expected {
				return fmt.Errorf("%s with delta %d: expected %v",
					sd, delta, expected)
			}
		}
	}
	return nil
}

func testBothAndEither() error {
	p := clientPacket(30, 20)
	p.Flow.Session.Server = detect.TcpStream{NextSeq: 22, LastAck: 20}

	both, err := Parse("both,>,8")
	if err != nil {
		return err
	}
	if MatchPacket(p, both) {
		return fmt.Errorf("both: server side should fail")
	}

	either, err := Parse("either,>,8")
	if err != nil {
		return err
	}
	if !MatchPacket(p, either) {
		return fmt.Errorf("either: client side should pass")
	}
	return nil
}

func testNoSession() error {
	sd, err := Parse("client,>=,0")
	if err != nil {
		return err
	}
	p := clientPacket(30, 20)
	p.IPv4 = nil
	if MatchPacket(p, sd) {
		return fmt.Errorf("matched packet without IPv4 header")
	}
	p = clientPacket(30, 20)
	p.Flow.Session = nil
	if MatchPacket(p, sd) {
		return fmt.Errorf("matched flow without session")
	}
	return nil
}
