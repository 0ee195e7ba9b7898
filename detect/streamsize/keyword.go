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
	"github.com/jasonish/idsdetect/log"
)

// Keyword plugs stream_size into a detect.Registry.
type Keyword struct{}

func New() *Keyword {
	return &Keyword{}
}

func (k *Keyword) ID() detect.KeywordID {
	return detect.KeywordStreamSize
}

func (k *Keyword) Name() string {
	return KeywordName
}

func (k *Keyword) Register() error {
	return Register()
}

func (k *Keyword) Setup(de *detect.EngineCtx, s *detect.Signature, arg string) error {
	sd, err := Parse(arg)
	if err != nil {
		return err
	}
	s.AppendMatch(&detect.SigMatch{
		Type: detect.KeywordStreamSize,
		Data: sd,
	})
	log.Debug("sid %d: stream_size %s", s.Sid, sd)
	return nil
}

func (k *Keyword) Match(t *detect.ThreadCtx, p *detect.Packet, s *detect.Signature, m *detect.SigMatch) bool {
	sd, ok := m.Data.(*Data)
	if !ok {
		return false
	}
	return MatchPacket(p, sd)
}

// Free clears the payload. Cleared data has no side and never matches
// should a stale reference survive.
func (k *Keyword) Free(data detect.MatchData) {
	if sd, ok := data.(*Data); ok && sd != nil {
		*sd = Data{}
	}
}

func (k *Keyword) SelfTests() []detect.SelfTest {
	return selfTests
}
