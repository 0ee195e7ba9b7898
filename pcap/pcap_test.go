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
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serialize(t *testing.T, payload []byte) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IP{192, 168, 1, 1},
		DstIP:    net.IP{192, 168, 1, 2},
	}
	tcp := &layers.TCP{SrcPort: 1234, DstPort: 80, Seq: 42, ACK: true, Ack: 7}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	require.NoError(t, gopacket.SerializeLayers(buf, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 6},
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip, tcp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	ts := time.Date(2017, 3, 1, 12, 0, 0, 0, time.UTC)
	buf, err := CreatePcap([]Packet{
		{Timestamp: ts, Data: serialize(t, []byte("hello"))},
		{Timestamp: ts.Add(time.Second), Data: serialize(t, nil)},
	}, layers.LinkTypeEthernet)
	require.NoError(t, err)

	reader, err := NewReader(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, reader.LinkType())

	packet, err := reader.Next()
	require.NoError(t, err)
	assert.True(t, ts.Equal(packet.Metadata().Timestamp))
	tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
	require.True(t, ok)
	assert.Equal(t, uint32(42), tcp.Seq)
	assert.Equal(t, []byte("hello"), tcp.Payload)

	_, err = reader.Next()
	require.NoError(t, err)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNotPcap(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("definitely not a pcap")))
	assert.Error(t, err)
}

func TestTCPSegmentSerialize(t *testing.T) {
	data, err := TCPSegment{
		SrcIP: "10.1.1.1", DstIP: "10.1.1.2", SrcPort: 5555, DstPort: 443,
		Seq: 9, ACK: true, Ack: 3, Payload: []byte("abc"),
	}.Serialize()
	require.NoError(t, err)

	packet := gopacket.NewPacket(data, layers.LinkTypeRaw, gopacket.Default)
	ip, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	require.True(t, ok)
	assert.Equal(t, "10.1.1.1", ip.SrcIP.String())
	tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
	require.True(t, ok)
	assert.Equal(t, layers.TCPPort(443), tcp.DstPort)
	assert.Equal(t, []byte("abc"), tcp.Payload)

	data, err = TCPSegment{SrcIP: "2001:db8::1", DstIP: "2001:db8::2", SrcPort: 1, DstPort: 2}.Serialize()
	require.NoError(t, err)
	packet = gopacket.NewPacket(data, layers.LinkTypeRaw, gopacket.Default)
	assert.NotNil(t, packet.Layer(layers.LayerTypeIPv6))
	assert.NotNil(t, packet.Layer(layers.LayerTypeTCP))

	_, err = TCPSegment{SrcIP: "bogus", DstIP: "10.1.1.2"}.Serialize()
	assert.Error(t, err)
}
