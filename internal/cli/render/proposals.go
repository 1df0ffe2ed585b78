package render

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/usecase"
)

// Color styles for table output
var (
	activeStyle   = color.New(color.FgGreen)
	terminalStyle = color.New(color.Faint)
	rejectedStyle = color.New(color.FgRed)
	titleStyle    = color.New(color.Bold)
	historyStyle  = color.New(color.FgCyan)
)

var numPrinter = message.NewPrinter(language.English)

// ProposalsRenderer renders persisted proposal listings as tables.
type ProposalsRenderer struct {
	out   io.Writer
	color bool
}

func NewProposalsRenderer(out io.Writer, useColor bool) *ProposalsRenderer {
	return &ProposalsRenderer{out: out, color: useColor}
}

// RenderListings renders the stored listing with vote totals and history.
func (r *ProposalsRenderer) RenderListings(listings []usecase.ProposalListing) error {
	if len(listings) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "CGP", "Stage", "Title", "Yes", "No", "Abstain", "History"})

	for _, listing := range listings {
		p := listing.Proposal
		history := ""
		if len(listing.History) > 0 {
			parts := make([]string, 0, len(listing.History))
			for _, id := range listing.History {
				parts = append(parts, fmt.Sprintf("#%d", id))
			}
			history = r.paint(historyStyle, strings.Join(parts, " → "))
		}
		t.AppendRow(table.Row{
			p.ProposalID,
			cgpLabel(p.RepoNumber),
			r.stageCell(domain.StageFromName(p.Stage)),
			r.paint(titleStyle, truncate(p.Title, 48)),
			formatCount(listing.Votes.Yes),
			formatCount(listing.Votes.No),
			formatCount(listing.Votes.Abstain),
			history,
		})
	}

	t.Render()
	return nil
}

// MergedRenderer renders the live reconciled view.
type MergedRenderer struct {
	out   io.Writer
	color bool
}

func NewMergedRenderer(out io.Writer, useColor bool) *MergedRenderer {
	return &MergedRenderer{out: out, color: useColor}
}

func (r *MergedRenderer) RenderMerged(merged []domain.MergedProposal) error {
	if len(merged) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "CGP", "Stage", "Source", "Title", "Yes", "No", "Abstain"})

	pr := ProposalsRenderer{out: r.out, color: r.color}
	for _, m := range merged {
		id := ""
		if m.ID != 0 {
			id = fmt.Sprintf("%d", m.ID)
		}
		cgp := ""
		if num, ok := m.RepoNumber(); ok {
			cgp = cgpLabel(num)
		}
		title := ""
		if m.Metadata != nil {
			title = m.Metadata.Title
		}
		votes := m.VoteTotals()
		t.AppendRow(table.Row{
			id,
			cgp,
			pr.stageCell(m.Stage),
			sourceLabel(m.Source()),
			pr.paint(titleStyle, truncate(title, 48)),
			formatCount(votes.Yes),
			formatCount(votes.No),
			formatCount(votes.Abstain),
		})
	}

	t.Render()
	return nil
}

func (r *ProposalsRenderer) stageCell(stage domain.Stage) string {
	name := stage.String()
	switch {
	case stage == domain.StageRejected || stage == domain.StageWithdrawn:
		return r.paint(rejectedStyle, name)
	case stage.IsActive():
		return r.paint(activeStyle, name)
	default:
		return r.paint(terminalStyle, name)
	}
}

func (r *ProposalsRenderer) paint(style *color.Color, s string) string {
	if !r.color || s == "" {
		return s
	}
	return style.Sprint(s)
}

func sourceLabel(s domain.MergeSource) string {
	switch s {
	case domain.SourceChainOnly:
		return "chain"
	case domain.SourceMetadataOnly:
		return "repo"
	default:
		return "both"
	}
}

func cgpLabel(num uint64) string {
	if num == 0 {
		return ""
	}
	return fmt.Sprintf("cgp-%04d", num)
}

// formatCount renders a vote total with digit grouping where it fits a
// machine word, falling back to the raw decimal string.
func formatCount(b *big.Int) string {
	if b == nil {
		return "0"
	}
	if b.IsUint64() {
		return numPrinter.Sprintf("%d", b.Uint64())
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
