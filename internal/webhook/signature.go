// Package webhook authenticates and handles GitHub webhook deliveries.
//
// Deliveries are verified with [Verify] before their payload is parsed. [ParseEvent] turns a verified body into one
// of [PingEvent], [IssuesEvent], [PushEvent] or [UnhandledEvent], and [Handler.Handle] acts on it.
package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"net/http"
	"strings"
)

const (
	HeaderSignature256 = "X-Hub-Signature-256"
	HeaderSignature    = "X-Hub-Signature"
	HeaderEvent        = "X-GitHub-Event"
	HeaderDelivery     = "X-GitHub-Delivery"
)

// SignatureHeader returns the strongest signature GitHub sent, preferring sha256.
func SignatureHeader(h http.Header) string {
	if sig := h.Get(HeaderSignature256); sig != "" {
		return sig
	}
	return h.Get(HeaderSignature)
}

// Verify reports whether signature ("sha256=<hex>" or "sha1=<hex>") is the HMAC of body under secret.
//
// A missing signature, an unknown algorithm, malformed hex or an empty secret all reject.
func Verify(body []byte, signature string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}

	algo, digest, ok := strings.Cut(signature, "=")
	if !ok {
		return false
	}

	var newHash func() hash.Hash
	switch algo {
	case "sha256":
		newHash = sha256.New
	case "sha1":
		newHash = sha1.New
	default:
		return false
	}

	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}

	mac := hmac.New(newHash, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the "sha256=<hex>" signature GitHub would send for body.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
