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

// Package flow keeps just enough TCP state per conversation to give the
// detection engine session byte accounting when replaying captures.
package flow

import (
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/jasonish/idsdetect/detect"
)

type key struct {
	network   gopacket.Flow
	transport gopacket.Flow
}

// Both directions of a conversation map to the same key.
func canonicalKey(network, transport gopacket.Flow) key {
	src, dst := network.Endpoints()
	reverse := dst.LessThan(src)
	if src == dst {
		tsrc, tdst := transport.Endpoints()
		reverse = tdst.LessThan(tsrc)
	}
	if reverse {
		return key{network.Reverse(), transport.Reverse()}
	}
	return key{network, transport}
}

type entry struct {
	flow *detect.Flow

	clientStarted bool
	serverStarted bool
}

// Table tracks TCP conversations. The side that sent the first packet seen
// is taken to be the client.
type Table struct {
	mu    sync.Mutex
	flows map[key]*entry
}

func NewTable() *Table {
	return &Table{
		flows: make(map[key]*entry),
	}
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flows)
}

// seqGT reports whether a comes after b in sequence space.
func seqGT(a, b uint32) bool {
	return int32(a-b) > 0
}

func networkFlow(p *detect.Packet) (gopacket.Flow, bool) {
	switch {
	case p.IPv4 != nil:
		return p.IPv4.NetworkFlow(), true
	case p.IPv6 != nil:
		return p.IPv6.NetworkFlow(), true
	}
	return gopacket.Flow{}, false
}

// Update attaches the packet to its flow, creating one if needed, and
// advances the flow's session accounting with the packet's TCP header.
// Packets without an IP and TCP layer are left without a flow. It reports
// whether a new flow was created.
func (t *Table) Update(p *detect.Packet) bool {
	if p.TCP == nil {
		return false
	}
	network, ok := networkFlow(p)
	if !ok {
		return false
	}
	// Built from the port fields so headers that were never decoded from
	// bytes still key correctly.
	transport, err := gopacket.FlowFromEndpoints(
		layers.NewTCPPortEndpoint(p.TCP.SrcPort),
		layers.NewTCPPortEndpoint(p.TCP.DstPort))
	if err != nil {
		return false
	}
	k := canonicalKey(network, transport)

	t.mu.Lock()
	defer t.mu.Unlock()

	created := false
	e, ok := t.flows[k]
	if !ok {
		e = &entry{
			flow: &detect.Flow{
				Network:   network,
				Transport: transport,
				Session:   &detect.TcpSession{},
			},
		}
		t.flows[k] = e
		created = true
	}

	p.Flow = e.flow
	p.ToServer = network == e.flow.Network && transport == e.flow.Transport
	e.account(p.TCP, len(p.Payload), p.ToServer)

	return created
}

func (e *entry) account(tcp *layers.TCP, payloadLen int, toServer bool) {
	ssn := e.flow.Session

	sender, peer := &ssn.Client, &ssn.Server
	senderStarted, peerStarted := &e.clientStarted, &e.serverStarted
	if !toServer {
		sender, peer = peer, sender
		senderStarted, peerStarted = peerStarted, senderStarted
	}

	end := tcp.Seq + uint32(payloadLen)
	if tcp.SYN {
		end++
	}
	if tcp.FIN {
		end++
	}

	if !*senderStarted {
		sender.LastAck = tcp.Seq
		sender.NextSeq = end
		*senderStarted = true
	} else if seqGT(end, sender.NextSeq) {
		sender.NextSeq = end
	}

	if !tcp.ACK {
		return
	}
	if !*peerStarted {
		// Picked up mid stream, nothing of the peer's is outstanding.
		peer.NextSeq = tcp.Ack
		peer.LastAck = tcp.Ack
		*peerStarted = true
		return
	}
	if seqGT(tcp.Ack, peer.LastAck) {
		peer.LastAck = tcp.Ack
	}
	if seqGT(peer.LastAck, peer.NextSeq) {
		peer.NextSeq = peer.LastAck
	}
}
