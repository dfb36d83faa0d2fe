package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/producelens/backend/internal/domain"
)

// UI renders command results as colored text or JSON.
type UI struct {
	out      io.Writer
	jsonMode bool

	heading *color.Color
	good    *color.Color
	bad     *color.Color
	muted   *color.Color
}

// NewUI creates a UI writing to out.
func NewUI(out io.Writer, jsonMode, noColor bool) *UI {
	ui := &UI{
		out:      out,
		jsonMode: jsonMode,
		heading:  color.New(color.FgCyan, color.Bold),
		good:     color.New(color.FgGreen),
		bad:      color.New(color.FgRed),
		muted:    color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{ui.heading, ui.good, ui.bad, ui.muted} {
			c.DisableColor()
		}
	}
	return ui
}

// JSON writes v as indented JSON.
func (ui *UI) JSON(v interface{}) error {
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Success prints a success line.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.good.Fprintf(ui.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.bad.Fprintf(ui.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Heading prints a section title.
func (ui *UI) Heading(title string) {
	ui.heading.Fprintln(ui.out, title)
}

// SearchResult prints products, evidence and the memory report.
func (ui *UI) SearchResult(result *domain.SearchResult) {
	fmt.Fprintf(ui.out, "%s %s  %s %s  %s %s\n",
		ui.muted.Sprint("region:"), result.UserRegion,
		ui.muted.Sprint("season:"), result.Season,
		ui.muted.Sprint("keywords:"), strings.Join(result.Keywords, ", "))

	ui.Heading(fmt.Sprintf("Products (%d of %d)", len(result.Products), result.ResultCount))
	if len(result.Products) == 0 {
		fmt.Fprintln(ui.out, "  none")
	}
	for i, p := range result.Products {
		fmt.Fprintf(ui.out, "  %d. %-16s ¥%-8s %-10s %-8s score %d\n",
			i+1, p.Name, p.Price, p.Region, p.Season, p.RelevanceScore)
	}

	ui.Heading("Evidence")
	if len(result.Evidence) == 0 {
		fmt.Fprintln(ui.out, "  none")
	}
	for _, e := range result.Evidence {
		fmt.Fprintf(ui.out, "  [%s] %s\n", e.Type, ui.muted.Sprint(e.Source))
		fmt.Fprintf(ui.out, "    %s\n", e.Content)
	}

	ui.MemoryReport(result.Memory)
}

// Answer prints the evidence, then the plan and conclusion.
func (ui *UI) Answer(answer *domain.AnswerResult) {
	ui.SearchResult(&answer.SearchResult)
	ui.Heading("Plan")
	fmt.Fprintf(ui.out, "  %s\n", answer.Plan)
	ui.Heading("Conclusion")
	fmt.Fprintf(ui.out, "  %s\n", answer.Conclusion)
}

// MemoryReport prints which memory side effects persisted.
func (ui *UI) MemoryReport(report domain.MemoryReport) {
	status := func(ok bool) string {
		if ok {
			return ui.good.Sprint("saved")
		}
		return ui.bad.Sprint("failed")
	}

	line := fmt.Sprintf("memory: read=%s history=%s intent=%s", report.Read, status(report.HistorySaved), status(report.IntentSaved))
	if report.SummarySaved != nil {
		line += " summary=" + status(*report.SummarySaved)
	}
	fmt.Fprintln(ui.out, ui.muted.Sprint(line))
	for _, e := range report.Errors {
		ui.Warning("%s", e)
	}
}

// Preferences prints a preference profile.
func (ui *UI) Preferences(userID string, prefs domain.Preferences, outcome domain.MemoryReadOutcome) {
	ui.Heading(fmt.Sprintf("Preferences for %s (%s)", userID, outcome))
	maxPrice := "none"
	if prefs.MaxPrice != nil {
		maxPrice = fmt.Sprintf("%.2f", *prefs.MaxPrice)
	}
	rows := [][2]string{
		{"preferred_categories", strings.Join(prefs.PreferredCategories, ", ")},
		{"preferred_regions", strings.Join(prefs.PreferredRegions, ", ")},
		{"preferred_crops", strings.Join(prefs.PreferredCrops, ", ")},
		{"price_sensitivity", prefs.Sensitivity()},
		{"max_price", maxPrice},
		{"organic_preference", prefs.Organic()},
		{"seasonal_preference", fmt.Sprint(prefs.WantsSeasonal())},
		{"allergies", strings.Join(prefs.Allergies, ", ")},
		{"diet", prefs.Diet},
		{"budget_level", prefs.BudgetLevel},
	}
	for _, r := range rows {
		fmt.Fprintf(ui.out, "  %-22s %s\n", r[0], r[1])
	}
}

// Summaries prints conversation summaries, oldest first.
func (ui *UI) Summaries(summaries []domain.ConversationSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(ui.out, "no summaries")
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(ui.out, "%s %s\n", ui.muted.Sprint(s.Timestamp.Format("2006-01-02 15:04")), s.Question)
		fmt.Fprintf(ui.out, "  → %s\n", s.Conclusion)
	}
}
