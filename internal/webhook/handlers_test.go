package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govsync-org/govsync/internal/usecase"
)

type recordingAlerter struct {
	subjects []string
}

func (a *recordingAlerter) Alert(ctx context.Context, subject string, err error, payload any) {
	a.subjects = append(a.subjects, subject)
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateProposals(context.Context, uint64) error { return nil }

func newTestServer() (*Server, *recordingAlerter) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingester := usecase.NewIngestEvents(
		common.HexToAddress("0x01"), common.HexToAddress("0x02"), 42220,
		nil, nil, nil, nopInvalidator{}, log)
	alerter := &recordingAlerter{}
	return NewServer(testSecret, ingester, alerter, log), alerter
}

func deliver(t *testing.T, server *Server, body []byte, timestamp, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/events", bytes.NewReader(body))
	if timestamp != "" {
		req.Header.Set(TimestampHeader, timestamp)
	}
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleEvents(t *testing.T) {
	t.Run("signed empty batch is accepted", func(t *testing.T) {
		server, _ := newTestServer()
		body := []byte(`{"events":[]}`)
		ts := fmt.Sprintf("%d", time.Now().Unix())
		sig := SignPayload(testSecret, ts, body)

		w := deliver(t, server, body, ts, sig)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "proposalsUpserted")
	})

	t.Run("tampered body is rejected with 403 and no side effects", func(t *testing.T) {
		server, alerter := newTestServer()
		original := []byte(`{"events":[]}`)
		ts := fmt.Sprintf("%d", time.Now().Unix())
		sig := SignPayload(testSecret, ts, original)

		tampered := []byte(`{"events":[{"kind":"ProposalQueued","address":"0x0000000000000000000000000000000000000001","proposalId":999}]}`)
		w := deliver(t, server, tampered, ts, sig)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, alerter.subjects)
	})

	t.Run("missing signature headers are rejected", func(t *testing.T) {
		server, _ := newTestServer()
		w := deliver(t, server, []byte(`{"events":[]}`), "", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("malformed json in a correctly signed body is a 400", func(t *testing.T) {
		server, _ := newTestServer()
		body := []byte(`{"events":`)
		ts := fmt.Sprintf("%d", time.Now().Unix())
		sig := SignPayload(testSecret, ts, body)

		w := deliver(t, server, body, ts, sig)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("event with a bad address is a 400", func(t *testing.T) {
		server, _ := newTestServer()
		body := []byte(`{"events":[{"kind":"ProposalQueued","address":"not-an-address","proposalId":7}]}`)
		ts := fmt.Sprintf("%d", time.Now().Unix())
		sig := SignPayload(testSecret, ts, body)

		w := deliver(t, server, body, ts, sig)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("health endpoint needs no signature", func(t *testing.T) {
		server, _ := newTestServer()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestToEvent(t *testing.T) {
	t.Run("full payload converts", func(t *testing.T) {
		ev, err := toEvent(eventPayload{
			Kind:        "ProposalVoted",
			Address:     "0x0000000000000000000000000000000000000001",
			BlockNumber: 123,
			LogIndex:    4,
			TxHash:      "0xabc",
			Timestamp:   1709294400,
			ProposalID:  7,
			Sender:      "0x0000000000000000000000000000000000000002",
			Value:       "31527023896396252559422463",
		})

		require.NoError(t, err)
		assert.Equal(t, uint64(7), ev.ProposalID)
		assert.Equal(t, "31527023896396252559422463", ev.Value.String())
		assert.Equal(t, int64(1709294400), ev.Timestamp.Unix())
	})

	t.Run("bad value is rejected", func(t *testing.T) {
		_, err := toEvent(eventPayload{
			Kind:    "ProposalVoted",
			Address: "0x0000000000000000000000000000000000000001",
			Value:   "1.5e18",
		})
		assert.Error(t, err)
	})

	t.Run("missing kind is rejected", func(t *testing.T) {
		_, err := toEvent(eventPayload{Address: "0x0000000000000000000000000000000000000001"})
		assert.Error(t, err)
	})
}
