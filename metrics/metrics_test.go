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

package metrics

import (
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Packets.Add(3)
	c.Flows.Inc()
	c.Alert(1000001)
	c.Alert(1000001)
	c.RulesLoaded.Set(4)

	assert.Equal(t, float64(3), testutil.ToFloat64(c.Packets))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Alerts.WithLabelValues("1000001")))

	values, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, float64(3), values["idsdetect_packets_total"])
	assert.Equal(t, float64(1), values["idsdetect_flows_total"])
	assert.Equal(t, float64(2), values["idsdetect_alerts_total{sid=1000001}"])
	assert.Equal(t, float64(4), values["idsdetect_rules_loaded"])
	assert.Equal(t, float64(0), values["idsdetect_rules_failed"])
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.Packets.Inc()

	recorder := httptest.NewRecorder()
	c.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, err := ioutil.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "idsdetect_packets_total 1")
}
