package renderer

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/coinfolio"
)

//go:embed templates/*.md
var templates embed.FS

// Report gathers everything shown on the portfolio report page.
type Report struct {
	Date        coinfolio.Date
	Holdings    coinfolio.Valuation
	Accounts    []coinfolio.AccountValuation
	Performance coinfolio.Performance
	Manual      coinfolio.ManualOverview
}

// NewReport gathers the report of the tracker as of today.
func NewReport(ctx context.Context, t *coinfolio.Tracker) (*Report, error) {
	r := &Report{Date: coinfolio.Today()}
	if t.Now != nil {
		r.Date = t.Now()
	}
	var err error
	if r.Holdings, err = t.Current(ctx); err != nil {
		return nil, err
	}
	if r.Accounts, err = t.AccountBalances(ctx); err != nil {
		return nil, err
	}
	if r.Performance, err = t.Performance(ctx); err != nil {
		return nil, err
	}
	if t.Manual != nil {
		if r.Manual, err = t.ManualOverview(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RenderReport renders the full portfolio report to markdown.
func RenderReport(r *Report) string {
	partials := map[string]string{
		"holdings":    "holdings.md",
		"accounts":    "accounts.md",
		"performance": "performance.md",
		"manual":      "manual.md",
	}
	return renderTemplate("report", "report.md", partials, r)
}

// CostBasisMarkdown renders replayed positions, in symbol order.
func CostBasisMarkdown(positions coinfolio.Positions) string {
	return renderTemplate("costbasis", "costbasis.md", nil, positions.Sorted())
}

// HoldingsMarkdown renders a valuation.
func HoldingsMarkdown(v coinfolio.Valuation) string {
	return renderTemplate("holdings", "holdings.md", nil, v)
}

// AccountsMarkdown renders the per account valuations.
func AccountsMarkdown(accounts []coinfolio.AccountValuation) string {
	return renderTemplate("accounts", "accounts.md", nil, accounts)
}

// SnapshotsMarkdown renders the recorded snapshots, newest first.
func SnapshotsMarkdown(snapshots []coinfolio.Snapshot) string {
	return renderTemplate("snapshots", "snapshots.md", nil, coinfolio.NewestFirst(snapshots))
}

// PerformanceMarkdown renders the changes over every lookback period.
func PerformanceMarkdown(p coinfolio.Performance) string {
	return renderTemplate("performance", "performance.md", nil, p)
}

// ManualMarkdown renders the manual balances overview.
func ManualMarkdown(o coinfolio.ManualOverview) string {
	return renderTemplate("manual", "manual.md", nil, o)
}

// LogMarkdown renders transactions in chronological order.
func LogMarkdown(txs []coinfolio.Transaction) string {
	return renderTemplate("log", "log.md", nil, coinfolio.Chronological(txs))
}

var funcs = template.FuncMap{
	"describe": Transaction,
	"title":    title,
	// change formats an optional amount, "-" when absent.
	"change": func(m *coinfolio.Money) string {
		if m == nil {
			return "-"
		}
		return m.SignedString()
	},
	"percent": func(p *coinfolio.Percent) string {
		if p == nil {
			return "-"
		}
		return p.SignedString()
	},
	"since": func(s *coinfolio.Snapshot) string {
		if s == nil {
			return "-"
		}
		return s.Date.String()
	},
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
