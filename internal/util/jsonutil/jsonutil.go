package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StripFence removes a markdown code fence wrapper from a model response.
// Gemini occasionally returns ```json ... ``` around the payload even when
// application/json output was requested. Input without a fence is returned
// unchanged apart from whitespace trimming.
func StripFence(raw []byte) []byte {
	s := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(s, []byte("```")) {
		return s
	}
	s = bytes.TrimPrefix(s, []byte("```"))
	// Drop an optional language tag on the opening fence line.
	if i := bytes.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(string(s[:i]))
		if first == "" || strings.EqualFold(first, "json") {
			s = s[i+1:]
		}
	}
	s = bytes.TrimSpace(s)
	s = bytes.TrimSuffix(s, []byte("```"))
	return bytes.TrimSpace(s)
}

// UnmarshalModel decodes a model response into v, tolerating a markdown
// code fence around the JSON body.
func UnmarshalModel(raw []byte, v any) error {
	return json.Unmarshal(StripFence(raw), v)
}

// MarshalNoEscape encodes v into JSON without HTML-escaping <, >, and
// &, which keeps prompt payloads readable for the model.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
