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

// Package replay runs loaded signatures over the packets of a capture file.
package replay

import (
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/jasonish/idsdetect/detect"
	"github.com/jasonish/idsdetect/eve"
	"github.com/jasonish/idsdetect/flow"
	"github.com/jasonish/idsdetect/log"
	"github.com/jasonish/idsdetect/metrics"
	"github.com/jasonish/idsdetect/pcap"
	"github.com/jasonish/idsdetect/rules"
	"github.com/pkg/errors"
)

type Stats struct {
	Packets uint64
	Alerts  uint64
}

type Engine struct {
	registry *detect.Registry
	rules    *rules.RuleMap
	flows    *flow.Table
	metrics  *metrics.Collector
	writer   *eve.Writer
	thread   detect.ThreadCtx
	stats    Stats
}

// New creates a replay engine. The metrics collector and the writer are
// optional.
func New(reg *detect.Registry, ruleMap *rules.RuleMap, collector *metrics.Collector, writer *eve.Writer) *Engine {
	return &Engine{
		registry: reg,
		rules:    ruleMap,
		flows:    flow.NewTable(),
		metrics:  collector,
		writer:   writer,
	}
}

func (e *Engine) Stats() Stats {
	return e.stats
}

// Decode extracts the layers detection works with.
func Decode(packet gopacket.Packet) *detect.Packet {
	p := &detect.Packet{
		Timestamp: packet.Metadata().Timestamp,
	}
	if ip4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		p.IPv4 = ip4
	}
	if ip6, ok := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		p.IPv6 = ip6
	}
	if tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
		p.TCP = tcp
		p.Payload = tcp.Payload
	}
	return p
}

// Inspect runs every signature against a packet and returns the alerts
// raised, writing them out if the engine has a writer.
func (e *Engine) Inspect(p *detect.Packet) ([]*eve.Alert, error) {
	e.stats.Packets++
	if e.metrics != nil {
		e.metrics.Packets.Inc()
	}

	if e.flows.Update(p) && e.metrics != nil {
		e.metrics.Flows.Inc()
	}

	var alerts []*eve.Alert
	for _, sig := range e.rules.Signatures() {
		if !sig.Match(e.registry, &e.thread, p) {
			continue
		}
		alert := eve.NewAlert(sig, p)
		alerts = append(alerts, alert)
		e.stats.Alerts++
		if e.metrics != nil {
			e.metrics.Alert(sig.Sid)
		}
		if e.writer != nil {
			if err := e.writer.Write(alert); err != nil {
				return alerts, errors.Wrap(err, "failed to write alert")
			}
		}
	}

	return alerts, nil
}

// Run inspects every packet from the reader until EOF.
func (e *Engine) Run(reader *pcap.Reader) error {
	for {
		packet, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, "failed to read packet")
		}
		if errLayer := packet.ErrorLayer(); errLayer != nil {
			log.Debug("Packet %d decode error: %v", e.stats.Packets+1,
				errLayer.Error())
		}
		if _, err := e.Inspect(Decode(packet)); err != nil {
			return err
		}
	}
	log.Info("Inspected %d packets, %d alerts", e.stats.Packets,
		e.stats.Alerts)
	return nil
}
