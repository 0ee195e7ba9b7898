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
	"github.com/jasonish/idsdetect/detect"
)

// Compare applies the operator to an unacknowledged byte count.
func Compare(diff uint32, size uint16, mode Mode) bool {
	ssize := uint32(size)
	switch mode {
	case ModeLT:
		return diff < ssize
	case ModeLEQ:
		return diff <= ssize
	case ModeEQ:
		return diff == ssize
	case ModeNEQ:
		return diff != ssize
	case ModeGEQ:
		return diff >= ssize
	case ModeGT:
		return diff > ssize
	}
	return false
}

// Evaluate checks the option against a session's byte accounting. A nil
// session never matches.
func Evaluate(sd *Data, ssn *detect.TcpSession) bool {
	if sd == nil || ssn == nil {
		return false
	}

	csdiff := ssn.Client.Unacked()
	ssdiff := ssn.Server.Unacked()

	switch sd.Side {
	case SideServer:
		return Compare(ssdiff, sd.Size, sd.Mode)
	case SideClient:
		return Compare(csdiff, sd.Size, sd.Mode)
	case SideBoth:
		return Compare(ssdiff, sd.Size, sd.Mode) &&
			Compare(csdiff, sd.Size, sd.Mode)
	case SideEither:
		return Compare(ssdiff, sd.Size, sd.Mode) ||
			Compare(csdiff, sd.Size, sd.Mode)
	}
	return false
}

// MatchPacket evaluates the option for a packet. Only IPv4 packets whose
// flow carries TCP session state are considered; everything else is a
// plain non-match.
func MatchPacket(p *detect.Packet, sd *Data) bool {
	if p == nil || p.IPv4 == nil {
		return false
	}
	if p.Flow == nil || p.Flow.Session == nil {
		return false
	}
	return Evaluate(sd, p.Flow.Session)
}
