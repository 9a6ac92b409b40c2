package veo

import (
	"encoding/json"
	"testing"

	"vidgate/internal/domain"
)

func TestTerminalPending(t *testing.T) {
	op := &Operation{Name: "models/m/operations/op1"}
	uri, done, err := op.Terminal()
	if uri != "" || done || err != nil {
		t.Fatalf("Terminal = (%q, %t, %v), want pending", uri, done, err)
	}
}

func TestTerminalSuccess(t *testing.T) {
	op := &Operation{
		Name:     "models/m/operations/op1",
		Done:     true,
		Response: json.RawMessage(`{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://upstream/v1"}},{"video":{"uri":"https://upstream/v2"}}]}}`),
	}
	uri, done, err := op.Terminal()
	if err != nil || !done {
		t.Fatalf("Terminal = (%q, %t, %v)", uri, done, err)
	}
	if uri != "https://upstream/v1" {
		t.Fatalf("uri = %q, want first sample", uri)
	}
}

func TestTerminalUpstreamFailure(t *testing.T) {
	op := &Operation{
		Name:  "models/m/operations/op1",
		Done:  true,
		Error: &OperationError{Code: 13, Message: "internal error generating video"},
	}
	_, done, err := op.Terminal()
	if !done {
		t.Fatalf("done = false, want true")
	}
	e, ok := domain.AsError(err)
	if !ok || e.Kind != domain.KindUpstream {
		t.Fatalf("error = %v, want upstream kind", err)
	}
	if e.Message != "internal error generating video" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestTerminalDoneWithoutResultIsMalformed(t *testing.T) {
	testCases := []struct {
		name string
		op   *Operation
	}{
		{name: "no response at all", op: &Operation{Done: true}},
		{name: "empty samples", op: &Operation{Done: true, Response: json.RawMessage(`{"generateVideoResponse":{"generatedSamples":[]}}`)}},
		{name: "sample without uri", op: &Operation{Done: true, Response: json.RawMessage(`{"generateVideoResponse":{"generatedSamples":[{"video":{}}]}}`)}},
		{name: "unrelated payload", op: &Operation{Done: true, Response: json.RawMessage(`{"somethingElse":true}`)}},
	}
	for _, tc := range testCases {
		_, done, err := tc.op.Terminal()
		if !done {
			t.Fatalf("%s: done = false, want true", tc.name)
		}
		if domain.KindOf(err) != domain.KindMalformed {
			t.Fatalf("%s: kind = %q, want malformed_response", tc.name, domain.KindOf(err))
		}
	}
}

func TestOperationRelaysUnknownResponseFields(t *testing.T) {
	raw := `{"name":"models/m/operations/op1","done":true,"response":{"@type":"type.googleapis.com/google.ai.generativelanguage.v1beta.PredictLongRunningResponse","generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://upstream/v1"}}]}}}`
	var op Operation
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round map[string]any
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	resp, ok := round["response"].(map[string]any)
	if !ok {
		t.Fatalf("response missing after round trip: %s", out)
	}
	if resp["@type"] == "" || resp["@type"] == nil {
		t.Fatalf("@type dropped in relay: %s", out)
	}
}
