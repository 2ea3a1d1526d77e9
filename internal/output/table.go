package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// ANSI color codes for status output (used when Colored=true).
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[0;31m"
	ansiGreen  = "\033[0;32m"
	ansiYellow = "\033[0;33m"
	ansiGray   = "\033[0;90m"
)

// TableOptions controls which columns RenderTable renders and how status is coloured.
type TableOptions struct {
	// Colored wraps status labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeName adds an ACCOUNT NAME column when any account has a name.
	IncludeName bool

	// IncludeGaps adds a FIRST GAP column with the first gap or error text.
	IncludeGaps bool
}

func statusColor(status models.ControlStatus) string {
	switch status {
	case models.StatusFail:
		return ansiRed
	case models.StatusPass:
		return ansiGreen
	case models.StatusNeedsReview:
		return ansiYellow
	case models.StatusNotImplemented:
		return ansiGray
	default:
		return ""
	}
}

// ColorStatus wraps a status string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorStatus(status models.ControlStatus, colored bool) string {
	s := string(status)
	code := statusColor(status)
	if !colored || code == "" {
		return s
	}
	return code + s + ansiReset
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// statusCell returns the status padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func statusCell(status models.ControlStatus, width int, colored bool) string {
	text := string(status)
	code := statusColor(status)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := max(width-len(text), 0)
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID/label columns.
// A single-char ellipsis replaces the last byte when truncation occurs.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func hasNames(accounts []models.AccountResult) bool {
	for _, a := range accounts {
		if a.AccountName != "" {
			return true
		}
	}
	return false
}

// firstIssue returns the first collection error, else the first gap.
func firstIssue(r models.ControlResult) string {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	if len(r.Gaps) > 0 {
		return r.Gaps[0]
	}
	return ""
}

// RenderTable writes one row per account and control result to w.
// Accounts that could not be scanned get a single row carrying their error.
//
// Column order:
//
//	ACCOUNT  [ACCOUNT NAME]  CONTROL  STATUS  GAPS  ERRORS  TITLE  [FIRST GAP]
func RenderTable(w io.Writer, accounts []models.AccountResult, opts TableOptions) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No accounts scanned.")
		return
	}

	showName := opts.IncludeName && hasNames(accounts)

	// Fixed column display widths.
	const (
		wAccount = 14
		wName    = 20
		wControl = 8
		wStatus  = 16
		wCount   = 6
		wTitle   = 30
		wIssue   = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wAccount, "ACCOUNT"))
	if showName {
		hb.WriteString(fmt.Sprintf("  %-*s", wName, "ACCOUNT NAME"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wControl, "CONTROL"))
	hb.WriteString(fmt.Sprintf("  %-*s", wStatus, "STATUS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wCount, "GAPS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wCount, "ERRORS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wTitle, "TITLE"))
	if opts.IncludeGaps {
		hb.WriteString("  FIRST GAP")
	}
	header := strings.TrimRight(hb.String(), " ")

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, acct := range accounts {
		prefix := fmt.Sprintf("%-*s", wAccount, truncateField(acct.AccountID, wAccount))
		if showName {
			prefix += fmt.Sprintf("  %-*s", wName, truncateField(acct.AccountName, wName))
		}

		if len(acct.Evidence) == 0 {
			msg := acct.IdentityError
			if msg == "" {
				msg = "no controls evaluated"
			}
			fmt.Fprintf(w, "%s  %-*s  %s\n", prefix, wControl, "-", ShortenMessage(msg, wIssue))
			continue
		}

		for _, r := range acct.Evidence {
			var rb strings.Builder
			rb.WriteString(prefix)
			rb.WriteString(fmt.Sprintf("  %-*s", wControl, truncateField(r.ControlID, wControl)))
			rb.WriteString("  " + statusCell(r.Status, wStatus, opts.Colored))
			rb.WriteString(fmt.Sprintf("  %-*d", wCount, len(r.Gaps)))
			rb.WriteString(fmt.Sprintf("  %-*d", wCount, len(r.Errors)))
			rb.WriteString(fmt.Sprintf("  %-*s", wTitle, ShortenMessage(r.Title, wTitle)))
			if opts.IncludeGaps {
				rb.WriteString("  " + ShortenMessage(firstIssue(r), wIssue))
			}
			fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
		}
	}
}

// RenderSummary writes the one-line status totals of a run.
func RenderSummary(w io.Writer, s models.RunSummary) {
	fmt.Fprintf(w,
		"Accounts: %d (unreachable: %d)  Results: %d  pass: %d  fail: %d  needs_review: %d  not_implemented: %d\n",
		s.AccountCount, s.FailedAccountCount, s.ControlResultCount,
		s.Pass, s.Fail, s.NeedsReview, s.NotImplemented,
	)
}
