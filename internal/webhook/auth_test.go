package webhook

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "test-shared-secret"

func signedAt(t time.Time) (timestamp, signature string, body []byte) {
	body = []byte(`{"events":[]}`)
	timestamp = fmt.Sprintf("%d", t.Unix())
	signature = SignPayload(testSecret, timestamp, body)
	return timestamp, signature, body
}

func TestVerifySignature(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid signature verifies", func(t *testing.T) {
		ts, sig, body := signedAt(now)
		assert.True(t, VerifySignature(testSecret, ts, sig, body, now))
	})

	t.Run("signature without prefix also verifies", func(t *testing.T) {
		ts, sig, body := signedAt(now)
		assert.True(t, VerifySignature(testSecret, ts, sig[len("sha256="):], body, now))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		ts, sig, _ := signedAt(now)
		tampered := []byte(`{"events":[{"kind":"ProposalQueued"}]}`)
		assert.False(t, VerifySignature(testSecret, ts, sig, tampered, now))
	})

	t.Run("tampered timestamp fails", func(t *testing.T) {
		_, sig, body := signedAt(now)
		other := fmt.Sprintf("%d", now.Add(time.Minute).Unix())
		assert.False(t, VerifySignature(testSecret, other, sig, body, now))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		ts, _, body := signedAt(now)
		sig := SignPayload("other-secret", ts, body)
		assert.False(t, VerifySignature(testSecret, ts, sig, body, now))
	})

	t.Run("stale timestamp fails", func(t *testing.T) {
		sent := now.Add(-MaxTimestampSkew - time.Minute)
		ts, sig, body := signedAt(sent)
		assert.False(t, VerifySignature(testSecret, ts, sig, body, now))
	})

	t.Run("future timestamp beyond skew fails", func(t *testing.T) {
		sent := now.Add(MaxTimestampSkew + time.Minute)
		ts, sig, body := signedAt(sent)
		assert.False(t, VerifySignature(testSecret, ts, sig, body, now))
	})

	t.Run("missing pieces fail closed", func(t *testing.T) {
		ts, sig, body := signedAt(now)
		assert.False(t, VerifySignature("", ts, sig, body, now))
		assert.False(t, VerifySignature(testSecret, "", sig, body, now))
		assert.False(t, VerifySignature(testSecret, ts, "", body, now))
		assert.False(t, VerifySignature(testSecret, "not-a-number", sig, body, now))
		assert.False(t, VerifySignature(testSecret, ts, "sha256=zzzz", body, now))
	})
}
