package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Header names for the signed delivery scheme.
const (
	SignatureHeader = "X-Govsync-Signature"
	TimestampHeader = "X-Govsync-Timestamp"
)

// MaxTimestampSkew bounds how stale a delivery may be before it is rejected
// outright, closing the replay window.
const MaxTimestampSkew = 5 * time.Minute

// SignPayload computes the delivery signature: HMAC-SHA256 over the
// timestamp header value, a dot, and the raw body.
func SignPayload(secret string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a delivery against the shared secret. Comparison is
// constant time; any missing piece fails closed.
func VerifySignature(secret string, timestamp, signatureHeader string, body []byte, now time.Time) bool {
	if secret == "" || timestamp == "" || signatureHeader == "" {
		return false
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	sent := time.Unix(unix, 0)
	skew := now.Sub(sent)
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxTimestampSkew {
		return false
	}

	sig := strings.TrimSpace(signatureHeader)
	if strings.HasPrefix(strings.ToLower(sig), "sha256=") {
		sig = sig[len("sha256="):]
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
