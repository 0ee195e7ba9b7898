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
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

const snaplen = 0xffff

// Packet is one captured frame.
type Packet struct {
	Timestamp time.Time
	Data      []byte
}

// CreatePcap builds a complete PCAP file in memory.
//
// Given the packets and the link type of their data, a []byte buffer
// containing a PCAP file is returned.
func CreatePcap(packets []Packet, linktype layers.LinkType) ([]byte, error) {
	var output bytes.Buffer

	pcapWriter := pcapgo.NewWriter(&output)
	if err := pcapWriter.WriteFileHeader(snaplen, linktype); err != nil {
		return nil, err
	}

	for _, packet := range packets {
		captureInfo := gopacket.CaptureInfo{
			Timestamp:     packet.Timestamp,
			CaptureLength: len(packet.Data),
			Length:        len(packet.Data),
		}
		if err := pcapWriter.WritePacket(captureInfo, packet.Data); err != nil {
			return nil, err
		}
	}

	return output.Bytes(), nil
}

// Reader decodes packets from a PCAP stream.
type Reader struct {
	reader *pcapgo.Reader
}

func NewReader(r io.Reader) (*Reader, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "not a pcap file")
	}
	return &Reader{reader: reader}, nil
}

func (r *Reader) LinkType() layers.LinkType {
	return r.reader.LinkType()
}

// Next returns the next packet decoded from its link layer up, or io.EOF.
func (r *Reader) Next() (gopacket.Packet, error) {
	data, ci, err := r.reader.ReadPacketData()
	if err != nil {
		return nil, err
	}
	packet := gopacket.NewPacket(data, r.reader.LinkType(), gopacket.Default)
	packet.Metadata().CaptureInfo = ci
	return packet, nil
}
