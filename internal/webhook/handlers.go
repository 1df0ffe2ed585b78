package webhook

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/govsync-org/govsync/internal/domain"
)

// eventPayload is the wire form of one delivered event.
type eventPayload struct {
	Kind          string `json:"kind"`
	Address       string `json:"address"`
	BlockNumber   uint64 `json:"blockNumber"`
	LogIndex      uint   `json:"logIndex"`
	TxHash        string `json:"txHash"`
	Timestamp     int64  `json:"timestamp"`
	ProposalID    uint64 `json:"proposalId,omitempty"`
	TransactionID uint64 `json:"transactionId,omitempty"`
	Sender        string `json:"sender,omitempty"`
	Value         string `json:"value,omitempty"`
}

// batchPayload is the body of one signed delivery.
type batchPayload struct {
	Events []eventPayload `json:"events"`
}

func (s *Server) handleEvents(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	timestamp := c.GetHeader(TimestampHeader)
	signature := c.GetHeader(SignatureHeader)
	if !VerifySignature(s.secret, timestamp, signature, body, time.Now()) {
		s.log.Warn("rejected delivery with bad signature", "remote", c.ClientIP())
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	var batch batchPayload
	if err := json.Unmarshal(body, &batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed batch"})
		return
	}

	events := make([]domain.Event, 0, len(batch.Events))
	for i, payload := range batch.Events {
		ev, err := toEvent(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("event %d: %v", i, err)})
			return
		}
		events = append(events, ev)
	}

	result, err := s.ingester.Run(c.Request.Context(), events)
	if err != nil {
		s.log.Error("batch processing failed", "events", len(events), "err", err)
		s.alerter.Alert(c.Request.Context(), "webhook batch processing failed", err, batch)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	s.log.Info("processed delivery",
		"events", len(events),
		"proposals", result.ProposalsUpserted,
		"approvals", result.ApprovalsInserted,
		"revoked", result.ApprovalsRevoked,
		"unrecognized", result.EventsUnrecognized)
	c.JSON(http.StatusOK, gin.H{
		"proposalsUpserted":  result.ProposalsUpserted,
		"approvalsInserted":  result.ApprovalsInserted,
		"approvalsRevoked":   result.ApprovalsRevoked,
		"eventsUnrecognized": result.EventsUnrecognized,
	})
}

func toEvent(p eventPayload) (domain.Event, error) {
	if p.Kind == "" {
		return domain.Event{}, fmt.Errorf("missing kind")
	}
	if !common.IsHexAddress(p.Address) {
		return domain.Event{}, fmt.Errorf("bad address %q", p.Address)
	}
	ev := domain.Event{
		Kind:          domain.EventKind(p.Kind),
		Address:       common.HexToAddress(p.Address),
		BlockNumber:   p.BlockNumber,
		LogIndex:      p.LogIndex,
		TxHash:        common.HexToHash(p.TxHash),
		Timestamp:     time.Unix(p.Timestamp, 0).UTC(),
		ProposalID:    p.ProposalID,
		TransactionID: p.TransactionID,
	}
	if p.Sender != "" {
		if !common.IsHexAddress(p.Sender) {
			return domain.Event{}, fmt.Errorf("bad sender %q", p.Sender)
		}
		ev.Sender = common.HexToAddress(p.Sender)
	}
	if p.Value != "" {
		value, ok := new(big.Int).SetString(p.Value, 10)
		if !ok {
			return domain.Event{}, fmt.Errorf("bad value %q", p.Value)
		}
		ev.Value = value
	}
	return ev, nil
}
