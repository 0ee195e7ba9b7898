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

package pcap

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
)

// TCPSegment describes a TCP segment to synthesize, for building captures
// to replay.
type TCPSegment struct {
	SrcIP   string
	DstIP   string
	SrcPort uint16
	DstPort uint16

	Seq uint32
	Ack uint32
	SYN bool
	ACK bool
	FIN bool
	RST bool

	Payload []byte
}

// Serialize returns the segment as a raw IP packet, suitable for a capture
// with layers.LinkTypeRaw. IPv6 is used when either address is IPv6.
func (s TCPSegment) Serialize() ([]byte, error) {
	buffer := gopacket.NewSerializeBuffer()
	options := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	srcIp := net.ParseIP(s.SrcIP)
	if srcIp == nil {
		return nil, errors.Errorf("failed to parse IP address %s", s.SrcIP)
	}
	dstIp := net.ParseIP(s.DstIP)
	if dstIp == nil {
		return nil, errors.Errorf("failed to parse IP address %s", s.DstIP)
	}

	tcpLayer := &layers.TCP{
		SrcPort: layers.TCPPort(s.SrcPort),
		DstPort: layers.TCPPort(s.DstPort),
		Seq:     s.Seq,
		Ack:     s.Ack,
		SYN:     s.SYN,
		ACK:     s.ACK,
		FIN:     s.FIN,
		RST:     s.RST,
		Window:  65535,
	}

	var ipLayer gopacket.SerializableLayer
	if srcIp.To4() != nil && dstIp.To4() != nil {
		ip4 := &layers.IPv4{
			SrcIP:    srcIp.To4(),
			DstIP:    dstIp.To4(),
			Version:  4,
			Protocol: layers.IPProtocolTCP,
			TTL:      64,
		}
		tcpLayer.SetNetworkLayerForChecksum(ip4)
		ipLayer = ip4
	} else {
		ip6 := &layers.IPv6{
			Version:    6,
			SrcIP:      srcIp,
			DstIP:      dstIp,
			NextHeader: layers.IPProtocolTCP,
			HopLimit:   64,
		}
		tcpLayer.SetNetworkLayerForChecksum(ip6)
		ipLayer = ip6
	}

	err := gopacket.SerializeLayers(buffer, options,
		ipLayer, tcpLayer, gopacket.Payload(s.Payload))
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
