package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/govsync-org/govsync/internal/domain"
)

// NormalizeMetadata fetches repository documents and validates them into
// canonical metadata records. Record-level failures are collected, never
// fatal: one malformed document must not abort the batch.
type NormalizeMetadata struct {
	source MetadataSource
	log    *slog.Logger
}

func NewNormalizeMetadata(source MetadataSource, log *slog.Logger) *NormalizeMetadata {
	return &NormalizeMetadata{source: source, log: log.With("component", "NormalizeMetadata")}
}

// NormalizeResult is the outcome of one normalization run.
type NormalizeResult struct {
	Records []*domain.ProposalMetadata
	// FailedURLs lists source documents dropped by validation, for
	// observability.
	FailedURLs []string
}

// Run lists remote documents, skips those already in cache (matched by
// repository number), and fetches and validates the rest. With validateBody
// set, a document whose body is empty after the front matter also fails.
func (n *NormalizeMetadata) Run(ctx context.Context, cache map[uint64]*domain.ProposalMetadata, validateBody bool) (*NormalizeResult, error) {
	refs, err := n.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repository documents: %w", err)
	}

	result := &NormalizeResult{}
	for _, cached := range cache {
		result.Records = append(result.Records, cached)
	}

	for _, ref := range refs {
		if _, ok := cache[ref.RepoNumber]; ok {
			continue
		}
		doc, err := n.source.FetchDocument(ctx, ref)
		if err != nil {
			// Fetch failures are source-unavailable, not validation: abort
			// this run and let the operator retry.
			return nil, fmt.Errorf("fetch %s: %w", ref.URL, err)
		}
		record, err := ParseMetadataDocument(doc, validateBody)
		if err != nil {
			n.log.Warn("dropping invalid repository document", "url", ref.URL, "err", err)
			result.FailedURLs = append(result.FailedURLs, ref.URL)
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

// frontMatter is the fixed front-matter schema of a repository document.
type frontMatter struct {
	RepoNumber   uint64 `yaml:"cgp"`
	Title        string `yaml:"title"`
	Author       string `yaml:"author"`
	Status       string `yaml:"status"`
	DateCreated  string `yaml:"date-created"`
	DateExecuted string `yaml:"date-executed"`
	Discussions  string `yaml:"discussions-to"`
	OnChainID    *uint64 `yaml:"governance-proposal-id"`

	Votes *struct {
		Yes     string `yaml:"yes"`
		No      string `yaml:"no"`
		Abstain string `yaml:"abstain"`
	} `yaml:"votes"`
}

// ParseMetadataDocument splits front matter from body and parses it against
// the fixed schema. Any schema violation fails the single record.
func ParseMetadataDocument(doc *RawDocument, validateBody bool) (*domain.ProposalMetadata, error) {
	front, body, err := splitFrontMatter(doc.Body)
	if err != nil {
		return nil, err
	}
	if validateBody && len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty document body")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(front, &fm); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	if fm.RepoNumber == 0 {
		return nil, fmt.Errorf("missing cgp number")
	}
	if doc.Ref.RepoNumber != 0 && fm.RepoNumber != doc.Ref.RepoNumber {
		return nil, fmt.Errorf("cgp number %d does not match filename %q", fm.RepoNumber, doc.Ref.Name)
	}
	if fm.Title == "" || fm.Author == "" {
		return nil, fmt.Errorf("missing title or author")
	}
	stage, err := domain.StageFromStatus(fm.Status)
	if err != nil {
		return nil, err
	}

	record := &domain.ProposalMetadata{
		RepoNumber: fm.RepoNumber,
		Title:      fm.Title,
		Author:     fm.Author,
		Stage:      stage,
		URL:        doc.Ref.URL,
		OnChainID:  fm.OnChainID,
	}
	if fm.Discussions != "" {
		record.URL = fm.Discussions
	}
	if record.CreatedAt, err = parseOptionalDate(fm.DateCreated); err != nil {
		return nil, err
	}
	if record.ExecutedAt, err = parseOptionalDate(fm.DateExecuted); err != nil {
		return nil, err
	}
	if fm.Votes != nil {
		votes, err := parseVoteSnapshot(fm.Votes.Yes, fm.Votes.No, fm.Votes.Abstain)
		if err != nil {
			return nil, err
		}
		record.Votes = votes
	}
	return record, nil
}

var frontMatterFence = []byte("---")

// splitFrontMatter separates the leading `---` fenced block from the body.
func splitFrontMatter(content []byte) (front, body []byte, err error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, frontMatterFence) {
		return nil, nil, domain.ErrMissingFrontMatter
	}
	rest := trimmed[len(frontMatterFence):]
	idx := bytes.Index(rest, append([]byte("\n"), frontMatterFence...))
	if idx < 0 {
		return nil, nil, domain.ErrMissingFrontMatter
	}
	front = rest[:idx]
	body = rest[idx+1+len(frontMatterFence):]
	return front, body, nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &t, nil
}

func parseVoteSnapshot(yes, no, abstain string) (*domain.VoteTotals, error) {
	parse := func(v string) (*big.Int, error) {
		if strings.TrimSpace(v) == "" {
			return new(big.Int), nil
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
		if !ok {
			return nil, fmt.Errorf("invalid vote count %q", v)
		}
		return n, nil
	}
	totals := &domain.VoteTotals{}
	var err error
	if totals.Yes, err = parse(yes); err != nil {
		return nil, err
	}
	if totals.No, err = parse(no); err != nil {
		return nil, err
	}
	if totals.Abstain, err = parse(abstain); err != nil {
		return nil, err
	}
	return totals, nil
}
