package paytm

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
)

// Sign computes the checksum the gateway expects: an HMAC-SHA256 over the
// canonical form of params (keys sorted ascending, joined as key=value&...,
// empty values skipped), base64-encoded. The same canonicalization is used for
// outbound request bodies and inbound callback verification.
func Sign(params map[string]string, merchantKey string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if params[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for i, k := range keys {
		if i > 0 {
			buf.WriteString("&")
		}
		buf.WriteString(k)
		buf.WriteString("=")
		buf.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, []byte(merchantKey))
	mac.Write([]byte(buf.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the checksum over params and compares it to the one the
// caller presented. params must not contain the checksum field itself. Any
// mismatch, including a malformed or empty checksum, reports false; Verify
// never panics on hostile input.
func Verify(params map[string]string, merchantKey, checksum string) bool {
	if checksum == "" {
		return false
	}
	want := Sign(params, merchantKey)
	return hmac.Equal([]byte(want), []byte(checksum))
}
