// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package media

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is the media API's mandated signature algorithm, not used for password hashing
	"encoding/hex"
	"sort"
	"strings"

	"github.com/parfour/parfour/internal/metrics"
)

// Sign computes the request signature for a set of media API
// parameters.
//
// The canonical form sorts parameter names lexicographically, renders
// each as "key=value", joins the pairs with "&", and appends the
// secret directly to the end with no delimiter. The signature is the
// lowercase hex SHA-1 digest of that string.
//
// Sign is pure: it performs no I/O, reads no clocks, and returns the
// same signature for the same inputs every time. Callers own the
// timestamp parameter. An empty parameter map is valid and yields the
// digest of the secret alone.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	digest := sha1.Sum([]byte(b.String())) //nolint:gosec // see import note
	return hex.EncodeToString(digest[:])
}

// signedParams returns a copy of params with api_key and signature
// attached, ready to be sent. The api_key and signature themselves are
// never part of the signed payload.
func signedParams(params map[string]string, creds Credentials) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = Sign(params, creds.APISecret)
	out["api_key"] = creds.APIKey
	metrics.MediaSignatures.Inc()
	return out
}
