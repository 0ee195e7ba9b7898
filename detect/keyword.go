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

import (
	"fmt"
	"sort"

	"github.com/jasonish/idsdetect/log"
	"github.com/pkg/errors"
)

// KeywordID tags match nodes with the keyword that owns their payload.
type KeywordID int

const (
	KeywordUnknown KeywordID = iota
	KeywordStreamSize
)

func (id KeywordID) String() string {
	switch id {
	case KeywordStreamSize:
		return "stream_size"
	}
	return fmt.Sprintf("keyword(%d)", int(id))
}

var ErrUnknownKeyword = errors.New("unknown keyword")
var ErrDuplicateKeyword = errors.New("keyword already registered")

// Keyword is the contract every rule option implementation fulfils.
type Keyword interface {
	ID() KeywordID
	Name() string

	// Register prepares process wide state, such as a compiled grammar.
	// It is called once at startup before any Setup or Match.
	Register() error

	// Setup parses the option argument and appends a match node to the
	// signature. On failure the signature is left untouched.
	Setup(de *EngineCtx, s *Signature, arg string) error

	// Match reports whether the node holds for the packet. It never fails.
	Match(t *ThreadCtx, p *Packet, s *Signature, m *SigMatch) bool

	// Free releases a payload created by Setup. Called once per payload.
	Free(data MatchData)

	SelfTests() []SelfTest
}

// Registry maps keyword names and ids to their implementation. It is
// filled at startup and only read afterwards, so lookups take no lock.
type Registry struct {
	byName map[string]Keyword
	byID   map[KeywordID]Keyword
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Keyword),
		byID:   make(map[KeywordID]Keyword),
	}
}

// Register runs the keyword's Register step and makes it available. A
// keyword whose Register fails is not added.
func (r *Registry) Register(kw Keyword) error {
	if _, ok := r.byName[kw.Name()]; ok {
		return errors.Wrap(ErrDuplicateKeyword, kw.Name())
	}
	if _, ok := r.byID[kw.ID()]; ok {
		return errors.Wrap(ErrDuplicateKeyword, kw.ID().String())
	}
	if err := kw.Register(); err != nil {
		log.Error("Failed to register keyword %s: %v", kw.Name(), err)
		return errors.Wrapf(err, "register %s", kw.Name())
	}
	r.byName[kw.Name()] = kw
	r.byID[kw.ID()] = kw
	log.Debug("Registered keyword %s", kw.Name())
	return nil
}

func (r *Registry) Lookup(name string) Keyword {
	return r.byName[name]
}

func (r *Registry) ByID(id KeywordID) Keyword {
	if r == nil {
		return nil
	}
	return r.byID[id]
}

// Keywords returns the registered keywords sorted by name.
func (r *Registry) Keywords() []Keyword {
	keywords := make([]Keyword, 0, len(r.byName))
	for _, kw := range r.byName {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		return keywords[i].Name() < keywords[j].Name()
	})
	return keywords
}

// Setup hands an option to the keyword registered under name.
func (r *Registry) Setup(s *Signature, name string, arg string) error {
	kw := r.Lookup(name)
	if kw == nil {
		return errors.Wrap(ErrUnknownKeyword, name)
	}
	return kw.Setup(&EngineCtx{Registry: r}, s, arg)
}
