package jsonutil

import "testing"

func TestStripFence_Unwrapped(t *testing.T) {
	in := []byte(`  {"a":1}  `)
	got := string(StripFence(in))
	if got != `{"a":1}` {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestStripFence_JSONFence(t *testing.T) {
	in := []byte("```json\n{\"a\": 1}\n```")
	var v struct {
		A int `json:"a"`
	}
	if err := UnmarshalModel(in, &v); err != nil {
		t.Fatalf("unmarshal fenced payload: %v", err)
	}
	if v.A != 1 {
		t.Fatalf("expected a=1, got %d", v.A)
	}
}

func TestStripFence_BareFence(t *testing.T) {
	in := []byte("```\n[{\"product_name\":\"Floor Lamp\"}]\n```")
	var v []map[string]any
	if err := UnmarshalModel(in, &v); err != nil {
		t.Fatalf("unmarshal fenced array: %v", err)
	}
	if len(v) != 1 {
		t.Fatalf("expected one element, got %d", len(v))
	}
}

func TestUnmarshalModel_Invalid(t *testing.T) {
	if err := UnmarshalModel([]byte("not json at all"), &struct{}{}); err == nil {
		t.Fatal("expected error for non-JSON input")
	}
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"q": "a < b & c"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"q":"a < b & c"}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
}
