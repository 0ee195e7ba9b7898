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

package detect

// MatchData is the keyword specific payload stored in a match node. Each
// keyword has its own concrete type which reports the keyword it belongs
// to, so a payload can never be mistaken for another keyword's.
type MatchData interface {
	Keyword() KeywordID
}

// SigMatch is one link of a signature's match chain.
type SigMatch struct {
	Type KeywordID
	Data MatchData
}

// Signature is a loaded detection rule.
type Signature struct {
	Sid uint64
	Gid uint64
	Rev uint64
	Msg string

	// The rule text the signature was built from.
	Raw string

	// Match chain, in the order the options appear in the rule.
	Matches []*SigMatch
}

// AppendMatch adds a node to the end of the match chain.
func (s *Signature) AppendMatch(sm *SigMatch) {
	s.Matches = append(s.Matches, sm)
}

// Match runs the match chain against a packet. Every node has to hold, and
// a signature without any node never matches.
func (s *Signature) Match(reg *Registry, t *ThreadCtx, p *Packet) bool {
	if len(s.Matches) == 0 {
		return false
	}
	for _, sm := range s.Matches {
		if sm.Data == nil || sm.Data.Keyword() != sm.Type {
			return false
		}
		kw := reg.ByID(sm.Type)
		if kw == nil {
			return false
		}
		if !kw.Match(t, p, s, sm) {
			return false
		}
	}
	return true
}

// Free releases every payload in the match chain through its keyword and
// empties the chain.
func (s *Signature) Free(reg *Registry) {
	for _, sm := range s.Matches {
		if sm.Data == nil {
			continue
		}
		if kw := reg.ByID(sm.Type); kw != nil {
			kw.Free(sm.Data)
		}
		sm.Data = nil
	}
	s.Matches = nil
}
