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

package flow

import (
	"net"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/jasonish/idsdetect/detect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clientIP = net.IP{10, 0, 0, 1}
	serverIP = net.IP{10, 0, 0, 2}
)

type segment struct {
	toServer bool
	syn      bool
	ack      bool
	fin      bool
	seq      uint32
	ackNum   uint32
	payload  int
}

func (s segment) packet() *detect.Packet {
	ip := &layers.IPv4{SrcIP: clientIP, DstIP: serverIP, Protocol: layers.IPProtocolTCP}
	tcp := &layers.TCP{SrcPort: 40000, DstPort: 80}
	if !s.toServer {
		ip.SrcIP, ip.DstIP = ip.DstIP, ip.SrcIP
		tcp.SrcPort, tcp.DstPort = tcp.DstPort, tcp.SrcPort
	}
	tcp.SYN = s.syn
	tcp.ACK = s.ack
	tcp.FIN = s.fin
	tcp.Seq = s.seq
	tcp.Ack = s.ackNum
	return &detect.Packet{
		IPv4:    ip,
		TCP:     tcp,
		Payload: make([]byte, s.payload),
	}
}

func TestHandshakeAndData(t *testing.T) {
	table := NewTable()

	p := segment{toServer: true, syn: true, seq: 100}.packet()
	assert.True(t, table.Update(p))
	require.NotNil(t, p.Flow)
	require.NotNil(t, p.Flow.Session)
	assert.True(t, p.ToServer)
	ssn := p.Flow.Session
	assert.Equal(t, uint32(1), ssn.Client.Unacked())

	p = segment{syn: true, ack: true, seq: 500, ackNum: 101}.packet()
	assert.False(t, table.Update(p))
	assert.False(t, p.ToServer)
	assert.True(t, p.Flow.Session == ssn)
	assert.Equal(t, uint32(0), ssn.Client.Unacked())
	assert.Equal(t, uint32(1), ssn.Server.Unacked())

	table.Update(segment{toServer: true, ack: true, seq: 101, ackNum: 501}.packet())
	assert.Equal(t, uint32(0), ssn.Server.Unacked())

	table.Update(segment{toServer: true, ack: true, seq: 101, ackNum: 501, payload: 10}.packet())
	assert.Equal(t, uint32(10), ssn.Client.Unacked())

	// Retransmission does not move next_seq back.
	table.Update(segment{toServer: true, ack: true, seq: 101, ackNum: 501, payload: 4}.packet())
	assert.Equal(t, uint32(10), ssn.Client.Unacked())

	table.Update(segment{ack: true, seq: 501, ackNum: 109}.packet())
	assert.Equal(t, uint32(2), ssn.Client.Unacked())

	// Old acks are ignored.
	table.Update(segment{ack: true, seq: 501, ackNum: 105}.packet())
	assert.Equal(t, uint32(2), ssn.Client.Unacked())

	table.Update(segment{ack: true, fin: true, seq: 501, ackNum: 111}.packet())
	assert.Equal(t, uint32(0), ssn.Client.Unacked())
	assert.Equal(t, uint32(1), ssn.Server.Unacked())

	assert.Equal(t, 1, table.Len())
}

func TestMidstream(t *testing.T) {
	table := NewTable()

	p := segment{toServer: true, ack: true, seq: 1000, ackNum: 7000, payload: 20}.packet()
	table.Update(p)
	ssn := p.Flow.Session
	assert.Equal(t, uint32(20), ssn.Client.Unacked())
	assert.Equal(t, uint32(0), ssn.Server.Unacked())

	table.Update(segment{ack: true, seq: 7000, ackNum: 1020, payload: 5}.packet())
	assert.Equal(t, uint32(0), ssn.Client.Unacked())
	assert.Equal(t, uint32(5), ssn.Server.Unacked())
}

func TestSequenceWrap(t *testing.T) {
	table := NewTable()

	p := segment{toServer: true, ack: true, seq: 0xfffffff0, ackNum: 1, payload: 0x20}.packet()
	table.Update(p)
	assert.Equal(t, uint32(0x10), p.Flow.Session.Client.NextSeq)
	assert.Equal(t, uint32(0x20), p.Flow.Session.Client.Unacked())

	table.Update(segment{ack: true, seq: 1, ackNum: 0x8}.packet())
	assert.Equal(t, uint32(0x8), p.Flow.Session.Client.Unacked())
}

func TestSeparateFlows(t *testing.T) {
	table := NewTable()

	a := segment{toServer: true, syn: true, seq: 1}.packet()
	b := segment{toServer: true, syn: true, seq: 1}.packet()
	b.TCP.SrcPort = 40001

	assert.True(t, table.Update(a))
	assert.True(t, table.Update(b))
	assert.False(t, a.Flow == b.Flow)
	assert.Equal(t, 2, table.Len())

	// Data on one connection leaves the other's accounting alone.
	data := segment{toServer: true, ack: true, seq: 2, ackNum: 1, payload: 10}.packet()
	assert.False(t, table.Update(data))
	assert.True(t, data.Flow == a.Flow)
	assert.Equal(t, uint32(11), a.Flow.Session.Client.Unacked())
	assert.Equal(t, uint32(1), b.Flow.Session.Client.Unacked())

	// A reply on the second port lands on the second flow.
	reply := segment{syn: true, ack: true, seq: 500, ackNum: 2}.packet()
	reply.TCP.DstPort = 40001
	assert.False(t, table.Update(reply))
	assert.True(t, reply.Flow == b.Flow)
	assert.False(t, reply.ToServer)
	assert.Equal(t, uint32(0), b.Flow.Session.Client.Unacked())
}

func TestNonTCP(t *testing.T) {
	table := NewTable()

	p := &detect.Packet{IPv4: &layers.IPv4{SrcIP: clientIP, DstIP: serverIP}}
	assert.False(t, table.Update(p))
	assert.Nil(t, p.Flow)

	p = &detect.Packet{TCP: &layers.TCP{}}
	assert.False(t, table.Update(p))
	assert.Nil(t, p.Flow)
	assert.Equal(t, 0, table.Len())
}

func TestIPv6(t *testing.T) {
	table := NewTable()
	p := &detect.Packet{
		IPv6: &layers.IPv6{SrcIP: net.ParseIP("2001:db8::1"), DstIP: net.ParseIP("2001:db8::2")},
		TCP:  &layers.TCP{SrcPort: 1, DstPort: 2, SYN: true},
	}
	assert.True(t, table.Update(p))
	assert.NotNil(t, p.Flow.Session)
}
