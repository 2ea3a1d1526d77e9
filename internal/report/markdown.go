package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// RenderMarkdown writes the human-readable report for payload.
//
// Layout:
//
//	# SOC 2 Evidence Report
//	run header, status totals
//	## Account <id> (<name>)
//	control table, gaps table, errors table
func RenderMarkdown(payload models.RunPayload, rec *Recommender) []byte {
	var b strings.Builder

	b.WriteString("# SOC 2 Evidence Report\n\n")
	fmt.Fprintf(&b, "- Run ID: `%s`\n", payload.RunID)
	fmt.Fprintf(&b, "- Scan ID: `%s`\n", payload.ScanID)
	fmt.Fprintf(&b, "- Generated: %s\n", payload.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Controls: %s\n", joinOrNone(payload.Controls))
	fmt.Fprintf(&b, "- Regions: %s\n", joinOrNone(payload.Regions))
	if payload.AccountID != "" {
		fmt.Fprintf(&b, "- Caller account: %s\n", payload.AccountID)
	}
	if payload.CallerARN != "" {
		fmt.Fprintf(&b, "- Caller ARN: `%s`\n", payload.CallerARN)
	}
	if payload.IdentityError != "" {
		fmt.Fprintf(&b, "- Identity error: %s\n", cell(payload.IdentityError))
	}
	if payload.OrganizationError != "" {
		fmt.Fprintf(&b, "- Organization error: %s\n", cell(payload.OrganizationError))
	}
	b.WriteString("\n")

	s := payload.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Accounts | Unreachable | Pass | Fail | Needs review | Not implemented |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
		s.AccountCount, s.FailedAccountCount, s.Pass, s.Fail, s.NeedsReview, s.NotImplemented)
	if s.Evaluated > 0 {
		fmt.Fprintf(&b, "%d of %d evaluated results have a determined verdict.\n\n", s.Determined, s.Evaluated)
	}

	for _, acct := range payload.Accounts {
		writeAccount(&b, acct, rec)
	}
	return []byte(b.String())
}

func writeAccount(b *strings.Builder, acct models.AccountResult, rec *Recommender) {
	title := cell(acct.AccountID)
	if title == "" {
		title = "(unknown)"
	}
	if acct.AccountName != "" {
		title += " (" + cell(acct.AccountName) + ")"
	}
	fmt.Fprintf(b, "## Account %s\n\n", title)
	if acct.CallerARN != "" {
		fmt.Fprintf(b, "Scanned as `%s`.\n\n", acct.CallerARN)
	}
	if acct.IdentityError != "" {
		fmt.Fprintf(b, "**Error:** %s\n\n", cell(acct.IdentityError))
	}
	if len(acct.Evidence) == 0 {
		b.WriteString("No controls were evaluated for this account.\n\n")
		return
	}

	b.WriteString("| Control | Title | Status | Gaps | Errors |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, res := range acct.Evidence {
		fmt.Fprintf(b, "| %s | %s | %s | %d | %d |\n",
			res.ControlID, cell(res.Title), res.Status, len(res.Gaps), len(res.Errors))
	}
	b.WriteString("\n")

	var gaps, errs [][3]string
	for _, res := range acct.Evidence {
		for _, g := range res.Gaps {
			gaps = append(gaps, [3]string{res.ControlID, g, rec.ForGap(g)})
		}
		for _, e := range res.Errors {
			errs = append(errs, [3]string{res.ControlID, e, rec.ForError(e)})
		}
	}
	writeFindingTable(b, "Gaps", "Gap", gaps)
	writeFindingTable(b, "Collection errors", "Error", errs)
}

func writeFindingTable(b *strings.Builder, heading, column string, rows [][3]string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", heading)
	fmt.Fprintf(b, "| Control | %s | Recommendation |\n", column)
	b.WriteString("|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s | %s |\n", r[0], cell(r[1]), cell(r[2]))
	}
	b.WriteString("\n")
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
