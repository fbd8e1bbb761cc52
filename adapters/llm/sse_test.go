package llm

import "testing"

func TestSSEPayload(t *testing.T) {
	cases := []struct {
		line    string
		payload string
		ok      bool
	}{
		{`data: {"a":1}`, `{"a":1}`, true},
		{`data:{"a":1}`, `{"a":1}`, true},
		{`{"a":1}`, `{"a":1}`, true},
		{"data: [DONE]", "", false},
		{"data: ", "", false},
		{"", "", false},
		{"\r", "", false},
		{": keep-alive", "", false},
		{"event: message", "", false},
		{"id: 42", "", false},
	}
	for _, tc := range cases {
		payload, ok := ssePayload(tc.line)
		if payload != tc.payload || ok != tc.ok {
			t.Fatalf("ssePayload(%q) = (%q, %v), want (%q, %v)", tc.line, payload, ok, tc.payload, tc.ok)
		}
	}
}

func TestExtractFragment(t *testing.T) {
	text, err := extractFragment(`{"candidates":[{"content":{"parts":[{"text":"Hi"}]}}]}`)
	if err != nil || text != "Hi" {
		t.Fatalf("got (%q, %v)", text, err)
	}

	for _, partial := range []string{
		`{}`,
		`{"candidates":[]}`,
		`{"candidates":[{"content":{}}]}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"finishReason":"STOP"}]}`,
	} {
		text, err := extractFragment(partial)
		if err != nil || text != "" {
			t.Fatalf("extractFragment(%s) = (%q, %v)", partial, text, err)
		}
	}

	if _, err := extractFragment(`{"candidates":[{"content"`); err == nil {
		t.Fatalf("expected error for malformed chunk")
	}
}
