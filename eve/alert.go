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
	"encoding/json"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/jasonish/idsdetect/detect"
	"github.com/oklog/ulid"
)

type AlertInfo struct {
	Action      string `json:"action"`
	Gid         uint64 `json:"gid"`
	SignatureId uint64 `json:"signature_id"`
	Rev         uint64 `json:"rev"`
	Signature   string `json:"signature"`
}

// TcpInfo records the session accounting the alert fired on.
type TcpInfo struct {
	ClientUnacked uint32 `json:"client_unacked"`
	ServerUnacked uint32 `json:"server_unacked"`
}

// Alert is an Eve alert record.
type Alert struct {
	Timestamp string    `json:"timestamp"`
	EventId   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	SrcIp     string    `json:"src_ip,omitempty"`
	SrcPort   uint16    `json:"src_port,omitempty"`
	DestIp    string    `json:"dest_ip,omitempty"`
	DestPort  uint16    `json:"dest_port,omitempty"`
	Proto     string    `json:"proto,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Alert     AlertInfo `json:"alert"`
	Tcp       *TcpInfo  `json:"tcp,omitempty"`

	time time.Time
}

func (a *Alert) Time() time.Time {
	return a.time
}

var entropyLock sync.Mutex
var entropy = rand.New(rand.NewSource(time.Now().UnixNano()))

func newEventId(timestamp time.Time) string {
	// ULIDs can't encode times before the epoch.
	if timestamp.Before(time.Unix(0, 0)) {
		timestamp = time.Now()
	}
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(timestamp), entropy).String()
}

// NewAlert creates the alert record for a signature match on a packet.
func NewAlert(sig *detect.Signature, p *detect.Packet) *Alert {
	gid := sig.Gid
	if gid == 0 {
		gid = 1
	}

	alert := &Alert{
		Timestamp: FormatTimestamp(p.Timestamp),
		EventId:   newEventId(p.Timestamp),
		EventType: "alert",
		Alert: AlertInfo{
			Action:      "allowed",
			Gid:         gid,
			SignatureId: sig.Sid,
			Rev:         sig.Rev,
			Signature:   sig.Msg,
		},
		time: p.Timestamp,
	}

	switch {
	case p.IPv4 != nil:
		alert.SrcIp = p.IPv4.SrcIP.String()
		alert.DestIp = p.IPv4.DstIP.String()
		alert.Proto = ProtoName(p.IPv4.Protocol)
	case p.IPv6 != nil:
		alert.SrcIp = p.IPv6.SrcIP.String()
		alert.DestIp = p.IPv6.DstIP.String()
		alert.Proto = ProtoName(p.IPv6.NextHeader)
	}

	if p.TCP != nil {
		alert.SrcPort = uint16(p.TCP.SrcPort)
		alert.DestPort = uint16(p.TCP.DstPort)
		alert.Proto = ProtoName(layers.IPProtocolTCP)
	}

	if p.Flow != nil {
		if p.ToServer {
			alert.Direction = "to_server"
		} else {
			alert.Direction = "to_client"
		}
		if ssn := p.Flow.Session; ssn != nil {
			alert.Tcp = &TcpInfo{
				ClientUnacked: ssn.Client.Unacked(),
				ServerUnacked: ssn.Server.Unacked(),
			}
		}
	}

	return alert
}

// Writer writes alerts as one JSON object per line.
type Writer struct {
	encoder *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

func (w *Writer) Write(alert *Alert) error {
	return w.encoder.Encode(alert)
}
