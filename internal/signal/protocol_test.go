package signal

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse_Offer(t *testing.T) {
	raw := []byte(`{"type":"offer","target":"b","caller":"a","sdp":{"type":"offer","sdp":"v=0"}}`)

	env, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if env.Type != TypeOffer || env.Target != "b" || env.Caller != "a" {
		t.Fatalf("unexpected envelope: %#v", env)
	}
	if err := env.ValidateInbound(); err != nil {
		t.Fatalf("ValidateInbound: %v", err)
	}
}

func TestParse_RejectsUnknownType(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"renegotiate"}`)); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err=%v, want ErrUnknownType", err)
	}
}

func TestParse_RejectsBadJSON(t *testing.T) {
	if _, err := Parse([]byte(`{`)); !errors.Is(err, ErrBadEnvelope) {
		t.Fatalf("err=%v, want ErrBadEnvelope", err)
	}
}

func TestValidateInbound_RequiredFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"join-room without roomId", `{"type":"join-room"}`},
		{"offer without target", `{"type":"offer","caller":"a","sdp":{}}`},
		{"offer without caller", `{"type":"offer","target":"b","sdp":{}}`},
		{"offer without sdp", `{"type":"offer","target":"b","caller":"a"}`},
		{"answer without sdp", `{"type":"answer","target":"a","caller":"b"}`},
		{"candidate without target", `{"type":"ice-candidate","candidate":{}}`},
		{"candidate without candidate", `{"type":"ice-candidate","target":"b"}`},
		{"server-only type", `{"type":"user-connected","connectionId":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Parse([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if err := env.ValidateInbound(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestUnwrapped_StripsAddressing(t *testing.T) {
	env, err := Parse([]byte(`{"type":"ice-candidate","target":"b","candidate":{"candidate":"candidate:1"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := env.Unwrapped()
	if out.Target != "" || out.Caller != "" {
		t.Fatalf("addressing not stripped: %#v", out)
	}

	b, err := out.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["target"]; ok {
		t.Fatalf("target leaked into wire form: %s", b)
	}
	if _, ok := m["candidate"]; !ok {
		t.Fatalf("candidate body missing: %s", b)
	}
}

func TestParse_RoundTripsSDPOpaquely(t *testing.T) {
	sdp := `{"type":"offer","sdp":"v=0\r\no=- 0 0 IN IP4 127.0.0.1"}`
	env := Envelope{Type: TypeOffer, Target: "b", Caller: "a", SDP: json.RawMessage(sdp)}

	b, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var want, have any
	if err := json.Unmarshal([]byte(sdp), &want); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if err := json.Unmarshal(got.SDP, &have); err != nil {
		t.Fatalf("unmarshal have: %v", err)
	}
	wb, _ := json.Marshal(want)
	hb, _ := json.Marshal(have)
	if string(wb) != string(hb) {
		t.Fatalf("sdp body changed in transit: %s", got.SDP)
	}
}
