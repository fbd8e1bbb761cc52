package llm

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	sseDataPrefix = "data:"
	sseDone       = "[DONE]"

	fragmentPath = "candidates.0.content.parts.0.text"
)

var errMalformedChunk = errors.New("malformed chunk")

// ssePayload returns the payload carried by one SSE line. ok is false for
// lines that carry nothing: blank separators, comments and non-data fields.
func ssePayload(line string) (payload string, ok bool) {
	line = strings.TrimRight(line, "\r")
	switch {
	case line == "":
		return "", false
	case strings.HasPrefix(line, ":"):
		return "", false
	case strings.HasPrefix(line, sseDataPrefix):
		payload = strings.TrimPrefix(line, sseDataPrefix)
		payload = strings.TrimPrefix(payload, " ")
	case strings.HasPrefix(line, "event:"), strings.HasPrefix(line, "id:"), strings.HasPrefix(line, "retry:"):
		return "", false
	default:
		payload = line
	}

	payload = strings.TrimSpace(payload)
	if payload == "" || payload == sseDone {
		return "", false
	}
	return payload, true
}

// extractFragment pulls the generated text out of one generate-content chunk.
// A missing or partial path yields "" with no error.
func extractFragment(payload string) (string, error) {
	if !gjson.Valid(payload) {
		return "", errMalformedChunk
	}
	res := gjson.Get(payload, fragmentPath)
	if !res.Exists() {
		return "", nil
	}
	return res.String(), nil
}
