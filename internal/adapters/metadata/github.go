package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/govsync-org/govsync/internal/usecase"
)

// docFilePattern matches repository documents and captures their number,
// e.g. "cgp-0042.md".
var docFilePattern = regexp.MustCompile(`^cgp-0*(\d+)\.md$`)

// GitHubSource lists and fetches proposal documents from a GitHub repository
// directory via the contents API.
type GitHubSource struct {
	apiBase    string
	owner      string
	repo       string
	branch     string
	dir        string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

func NewGitHubSource(owner, repo, branch, dir, token string, log *slog.Logger) *GitHubSource {
	return &GitHubSource{
		apiBase:    "https://api.github.com",
		owner:      owner,
		repo:       repo,
		branch:     branch,
		dir:        dir,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With("component", "GitHubSource"),
	}
}

type contentsEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
}

// ListDocuments returns refs for every file in the configured directory whose
// name carries a repository number. Other files are ignored silently; the
// directory also holds templates and images.
func (g *GitHubSource) ListDocuments(ctx context.Context) ([]usecase.DocumentRef, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", g.apiBase, g.owner, g.repo, g.dir, g.branch)
	body, err := g.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", g.owner, g.repo, err)
	}

	var entries []contentsEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode contents listing: %w", err)
	}

	refs := make([]usecase.DocumentRef, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		m := docFilePattern.FindStringSubmatch(entry.Name)
		if m == nil {
			continue
		}
		num, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil || num == 0 {
			continue
		}
		refs = append(refs, usecase.DocumentRef{
			RepoNumber: num,
			Name:       entry.Name,
			URL:        entry.DownloadURL,
		})
	}
	g.log.Debug("listed repository documents", "count", len(refs))
	return refs, nil
}

// FetchDocument downloads one raw document body.
func (g *GitHubSource) FetchDocument(ctx context.Context, ref usecase.DocumentRef) (*usecase.RawDocument, error) {
	body, err := g.get(ctx, ref.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.Name, err)
	}
	return &usecase.RawDocument{Ref: ref, Body: body}, nil
}

func (g *GitHubSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}
