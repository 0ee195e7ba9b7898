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

// Package detect holds the types the detection engine shares with its rule
// keywords: packets, flows with their TCP session accounting, signatures
// and the match chain each signature owns.
package detect

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// TcpStream is one direction of a TCP session as maintained by the stream
// tracker.
type TcpStream struct {
	// Sequence number following the last byte sent by this side.
	NextSeq uint32

	// Last acknowledgment received from the peer for this side's data.
	LastAck uint32
}

// Unacked returns the number of bytes this side has sent that the peer has
// not acknowledged. The subtraction wraps like any sequence arithmetic.
func (s TcpStream) Unacked() uint32 {
	return s.NextSeq - s.LastAck
}

// TcpSession is the per flow TCP state. Keywords only ever read it.
type TcpSession struct {
	Client TcpStream
	Server TcpStream
}

// Flow groups the packets of one bidirectional conversation.
type Flow struct {
	Network   gopacket.Flow
	Transport gopacket.Flow

	// Nil until the stream tracker has attached TCP state.
	Session *TcpSession
}

// Packet is a decoded packet presented to the detection engine.
type Packet struct {
	Timestamp time.Time

	// Nil for anything other than IPv4.
	IPv4 *layers.IPv4
	IPv6 *layers.IPv6
	TCP  *layers.TCP

	Payload []byte

	Flow *Flow

	// True when the packet travels from client to server.
	ToServer bool
}

// EngineCtx is the rule loading context handed to keyword Setup.
type EngineCtx struct {
	Registry *Registry
}

// ThreadCtx is the per worker inspection context handed to keyword Match.
type ThreadCtx struct {
	ID int
}
