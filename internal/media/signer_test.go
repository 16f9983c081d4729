// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package media

import "testing"

func TestSignKnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		secret string
		want   string
	}{
		{
			name:   "delete params",
			params: map[string]string{"public_id": "sponsors/acme", "timestamp": "1735689600"},
			secret: "secret123",
			want:   "ccaeb207232b208b609fc20914ee6e06e32c1899",
		},
		{
			name:   "upload params",
			params: map[string]string{"folder": "sponsors", "timestamp": "1735689600"},
			secret: "abc",
			want:   "7c7564201fa04f1b67aa6ce704464eb4c359e3d7",
		},
		{
			name:   "three keys sorted",
			params: map[string]string{"c": "3", "a": "1", "b": "2"},
			secret: "topsecret",
			want:   "8ff5bda03078c9157c54cdb50b1b6acb9a2494d1",
		},
		{
			name:   "empty params hash secret alone",
			params: map[string]string{},
			secret: "secret123",
			want:   "f2b14f68eb995facb3a1c35287b778d5bd785511",
		},
		{
			name:   "nil params hash secret alone",
			params: nil,
			secret: "secret123",
			want:   "f2b14f68eb995facb3a1c35287b778d5bd785511",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sign(tt.params, tt.secret); got != tt.want {
				t.Errorf("Sign() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	params := map[string]string{"timestamp": "1735689600", "public_id": "winners/2026"}
	first := Sign(params, "secret123")
	for i := 0; i < 100; i++ {
		if got := Sign(params, "secret123"); got != first {
			t.Fatalf("Sign not deterministic: %s != %s", got, first)
		}
	}
}

func TestSignKeyOrderIrrelevant(t *testing.T) {
	// Map iteration order is randomized; identical contents must always
	// canonicalize to the same signature.
	a := map[string]string{"x": "1", "y": "2", "z": "3"}
	b := map[string]string{"z": "3", "x": "1", "y": "2"}
	if Sign(a, "s") != Sign(b, "s") {
		t.Error("identical params must produce identical signatures")
	}
}

func TestSignSensitivity(t *testing.T) {
	base := Sign(map[string]string{"public_id": "sponsors/acme", "timestamp": "1735689600"}, "secret123")

	changedParam := Sign(map[string]string{"public_id": "sponsors/acme", "timestamp": "1735689601"}, "secret123")
	if changedParam == base {
		t.Error("changing a parameter must change the signature")
	}

	changedSecret := Sign(map[string]string{"public_id": "sponsors/acme", "timestamp": "1735689600"}, "secret124")
	if changedSecret == base {
		t.Error("changing the secret must change the signature")
	}
}

func TestSignIsLowercaseHex(t *testing.T) {
	sig := Sign(map[string]string{"a": "b"}, "s")
	if len(sig) != 40 {
		t.Fatalf("expected 40-char SHA-1 hex, got %d chars", len(sig))
	}
	for _, r := range sig {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected character %q in signature %s", r, sig)
		}
	}
}

func TestSignedParamsExcludesCredentialsFromSignature(t *testing.T) {
	creds := Credentials{CloudName: "cloud", APIKey: "key-1", APISecret: "secret123"}
	params := map[string]string{"public_id": "sponsors/acme", "timestamp": "1735689600"}

	out := signedParams(params, creds)

	if out["api_key"] != "key-1" {
		t.Errorf("expected api_key attached, got %q", out["api_key"])
	}
	// Signature covers only the original params, never api_key itself.
	if out["signature"] != Sign(params, creds.APISecret) {
		t.Error("signature must be computed over the original params only")
	}
	// Input map is untouched.
	if _, ok := params["signature"]; ok {
		t.Error("signedParams must not mutate its input")
	}
}
