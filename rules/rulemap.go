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

// Package rules loads rule files into detection signatures.
package rules

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/jasonish/idsdetect/detect"
	"github.com/jasonish/idsdetect/log"
	"github.com/jasonish/idsdetect/ruleparser"
	"github.com/pkg/errors"
)

// Options that only describe a rule. They never become match nodes.
var metadataOptions = map[string]bool{
	"msg":       true,
	"sid":       true,
	"gid":       true,
	"rev":       true,
	"classtype": true,
	"reference": true,
	"metadata":  true,
	"priority":  true,
}

// BuildSignature turns a parsed rule into a signature by handing every
// detection option to the keyword registered for it. If any option fails,
// whatever was already set up is freed and the error returned.
func BuildSignature(reg *detect.Registry, rule ruleparser.Rule) (*detect.Signature, error) {
	sig := &detect.Signature{
		Sid: rule.Sid,
		Gid: rule.Gid,
		Rev: rule.Rev,
		Msg: rule.Msg,
		Raw: rule.Raw,
	}

	for _, option := range rule.Options {
		if metadataOptions[option.Option] {
			continue
		}
		if err := reg.Setup(sig, option.Option, option.Args); err != nil {
			sig.Free(reg)
			return nil, errors.Wrapf(err, "sid %d: %s", rule.Sid,
				option.Option)
		}
	}

	if len(sig.Matches) == 0 {
		return nil, errors.Errorf("sid %d: no detection options", rule.Sid)
	}

	return sig, nil
}

// RuleMap holds the loaded signatures by signature ID.
type RuleMap struct {
	registry   *detect.Registry
	signatures map[uint64]*detect.Signature

	// Signatures in load order.
	ordered []*detect.Signature

	// Number of rules rejected while loading.
	Failed int
}

func NewRuleMap(reg *detect.Registry) *RuleMap {
	return &RuleMap{
		registry:   reg,
		signatures: make(map[uint64]*detect.Signature),
	}
}

func (r *RuleMap) add(rule ruleparser.Rule) {
	if _, ok := r.signatures[rule.Sid]; ok {
		log.Warning("A rule with ID %d already exists.", rule.Sid)
		r.Failed++
		return
	}

	sig, err := BuildSignature(r.registry, rule)
	if err != nil {
		log.Warning("Failed to load rule: %v", err)
		r.Failed++
		return
	}

	r.signatures[rule.Sid] = sig
	r.ordered = append(r.ordered, sig)
}

// LoadReader loads rules from a reader, returning how many were added.
// Rules that fail to parse or set up are logged and skipped.
func (r *RuleMap) LoadReader(reader io.Reader, name string) (int, error) {
	ruleReader := ruleparser.NewRuleReader(reader)
	before := len(r.ordered)

	for {
		rule, err := ruleReader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			if parseError, ok := err.(*ruleparser.RuleParseError); ok {
				log.Warning("Rule parse error at %s:%d: %v", name,
					ruleReader.Line, parseError)
				r.Failed++
				continue
			}
			return len(r.ordered) - before, errors.Wrap(err, name)
		}

		if !rule.Enabled {
			continue
		}

		r.add(rule)
	}

	count := len(r.ordered) - before
	log.Debug("Loaded %d rules from %s", count, name)

	return count, nil
}

func (r *RuleMap) loadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = r.LoadReader(file, filename)
	return err
}

// Load loads rules from a list of files, directories or glob patterns. Only
// files ending in .rules are read from directories.
func (r *RuleMap) Load(paths []string) error {
	for _, path := range paths {

		fileInfo, err := os.Stat(path)
		if err != nil {
			// Load as glob.
			matches, err := filepath.Glob(path)
			if err != nil || len(matches) == 0 {
				log.Warning("No matches for %s", path)
				continue
			}
			for _, m := range matches {
				if err := r.loadFile(m); err != nil {
					return err
				}
			}
		} else if fileInfo.IsDir() {
			infos, err := ioutil.ReadDir(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", path)
			}
			for _, info := range infos {
				if !strings.HasSuffix(info.Name(), ".rules") {
					continue
				}
				if err := r.loadFile(filepath.Join(path, info.Name())); err != nil {
					return err
				}
			}
		} else {
			if err := r.loadFile(path); err != nil {
				return err
			}
		}

	}

	log.Info("Loaded %d rules, %d failed", len(r.ordered), r.Failed)

	return nil
}

func (r *RuleMap) FindById(id uint64) *detect.Signature {
	if r == nil || r.signatures == nil {
		return nil
	}
	return r.signatures[id]
}

// Signatures returns the loaded signatures in load order.
func (r *RuleMap) Signatures() []*detect.Signature {
	return r.ordered
}

func (r *RuleMap) Len() int {
	return len(r.ordered)
}

// Free releases every signature's match chain. The map is empty afterwards.
func (r *RuleMap) Free() {
	for _, sig := range r.ordered {
		sig.Free(r.registry)
	}
	r.signatures = make(map[uint64]*detect.Signature)
	r.ordered = nil
}
