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

package eve

import (
	"bytes"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/jasonish/idsdetect/detect"
	"github.com/oklog/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtoName(t *testing.T) {
	assert.Equal(t, "TCP", ProtoName(layers.IPProtocolTCP))
	assert.Equal(t, "IPv6-ICMP", ProtoName(layers.IPProtocolICMPv6))
	assert.Equal(t, "132", ProtoName(layers.IPProtocol(132)))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2017, 3, 1, 12, 0, 0, 123456000, time.FixedZone("", -6*3600))
	assert.Equal(t, "2017-03-01T12:00:00.123456-0600", FormatTimestamp(ts))
}

func TestNewAlert(t *testing.T) {
	ts := time.Date(2017, 3, 1, 12, 0, 0, 0, time.UTC)
	sig := &detect.Signature{Sid: 1000001, Rev: 2, Msg: "Client backlog"}
	p := &detect.Packet{
		Timestamp: ts,
		IPv4: &layers.IPv4{
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
			Protocol: layers.IPProtocolTCP,
		},
		TCP: &layers.TCP{SrcPort: 40000, DstPort: 80},
		Flow: &detect.Flow{Session: &detect.TcpSession{
			Client: detect.TcpStream{NextSeq: 30, LastAck: 20},
		}},
		ToServer: true,
	}

	alert := NewAlert(sig, p)
	assert.Equal(t, "alert", alert.EventType)
	assert.Equal(t, "2017-03-01T12:00:00.000000+0000", alert.Timestamp)
	assert.True(t, ts.Equal(alert.Time()))
	assert.Equal(t, "10.0.0.1", alert.SrcIp)
	assert.Equal(t, uint16(80), alert.DestPort)
	assert.Equal(t, "TCP", alert.Proto)
	assert.Equal(t, "to_server", alert.Direction)
	assert.Equal(t, uint64(1), alert.Alert.Gid)
	assert.Equal(t, uint64(1000001), alert.Alert.SignatureId)
	require.NotNil(t, alert.Tcp)
	assert.Equal(t, uint32(10), alert.Tcp.ClientUnacked)

	id, err := ulid.Parse(alert.EventId)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(ts), id.Time())

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(alert))
	decoded := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "alert", decoded["event_type"])
	assert.Equal(t, float64(1000001),
		decoded["alert"].(map[string]interface{})["signature_id"])
	assert.Equal(t, float64(10),
		decoded["tcp"].(map[string]interface{})["client_unacked"])
}

func TestNewAlertZeroTime(t *testing.T) {
	alert := NewAlert(&detect.Signature{Sid: 1}, &detect.Packet{})
	_, err := ulid.Parse(alert.EventId)
	assert.NoError(t, err)
	assert.Nil(t, alert.Tcp)
	assert.Equal(t, "", alert.Direction)
}
