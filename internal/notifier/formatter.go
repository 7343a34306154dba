package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MarketPulse/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// PlainText drops the Telegram markup from a formatted message and decodes
// its entities. Line breaks are kept.
func PlainText(message string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(message))
	if err != nil {
		return message
	}
	return doc.Text()
}

// FormatPrice rounds v half away from zero to the instrument precision.
func FormatPrice(v float64, precision int32) string {
	return decimal.NewFromFloat(v).StringFixed(precision)
}

// FormatVolume renders a volume with thousands separators.
func FormatVolume(v float64) string {
	if v <= 0 {
		return "n/a"
	}
	return humanize.Comma(int64(v))
}

func toneIcon(c model.Classification) string {
	switch c.Tone() {
	case "positive":
		return "🟢"
	case "negative":
		return "🔴"
	default:
		return "⚪"
	}
}

func changeText(q model.Quote) string {
	if !q.HasChange() {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", q.ChangePercent)
}

// FormatAnalysis renders one board entry with its indicator breakdown.
func FormatAnalysis(e model.BoardEntry) string {
	var b strings.Builder
	inst := e.Instrument
	p := inst.Precision

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s)\n", html.EscapeString(inst.Name), html.EscapeString(inst.Symbol)))
	b.WriteString(fmt.Sprintf("Price: %s (%s)\n", FormatPrice(e.Quote.Price, p), changeText(e.Quote)))
	b.WriteString(fmt.Sprintf("Day range: %s – %s | Volume: %s\n",
		FormatPrice(e.Quote.DayLow, p), FormatPrice(e.Quote.DayHigh, p), FormatVolume(e.Quote.Volume)))
	if e.Simulated {
		b.WriteString("⚠️ Simulated quote, providers unavailable\n")
	}

	a := e.Analysis
	if a == nil {
		b.WriteString("\nAnalysis unavailable: quote has no change.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("\n%s <b>%s</b> | Score %d/100\n", toneIcon(a.Classification), a.Classification, a.Score))
	b.WriteString(fmt.Sprintf("RSI: %d (%s)\n", a.RelativeStrength.Value, a.RelativeStrength.Label))
	b.WriteString(fmt.Sprintf("Volatility: %.2f%% (%s)\n", a.Volatility.RangePercent, a.Volatility.Label))
	b.WriteString(fmt.Sprintf("Range position: %.0f%% (%s, %s)\n", a.RangePosition.Percent, a.RangePosition.Zone, a.RangePosition.Note))
	b.WriteString(fmt.Sprintf("Force: %s %s, confidence %s\n", a.Force.Strength, a.Force.Direction, a.Force.Confidence))
	b.WriteString(fmt.Sprintf("Momentum: %s (%s). %s\n", a.Momentum.Label, a.Momentum.TrendBias, a.Momentum.Advice))

	pv := a.Pivots
	b.WriteString("\n📐 <b>Pivots</b>\n")
	b.WriteString(fmt.Sprintf("  R2 %s | R1 %s\n", FormatPrice(pv.Resistance2, p), FormatPrice(pv.Resistance1, p)))
	b.WriteString(fmt.Sprintf("  P  %s\n", FormatPrice(pv.Pivot, p)))
	b.WriteString(fmt.Sprintf("  S1 %s | S2 %s\n", FormatPrice(pv.Support1, p), FormatPrice(pv.Support2, p)))

	b.WriteString("\n📈 <b>Score breakdown</b>\n")
	for _, f := range a.Factors {
		b.WriteString(fmt.Sprintf("  %s: %+d (%s)\n", f.Name, f.Points, f.Commentary))
	}

	b.WriteString("\n" + html.EscapeString(a.Summary) + "\n")
	return b.String()
}

// FormatBoard renders a one-line-per-symbol digest in board order.
func FormatBoard(entries []model.BoardEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>MarketPulse board</b> | %s\n\n", now.Format("2006-01-02 15:04")))
	if len(entries) == 0 {
		b.WriteString("No quotes yet.\n")
		return b.String()
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %s %s", html.EscapeString(e.Instrument.Symbol), FormatPrice(e.Quote.Price, e.Instrument.Precision), changeText(e.Quote))
		if e.Analysis != nil {
			line = fmt.Sprintf("%s %s | %d %s", toneIcon(e.Analysis.Classification), line, e.Analysis.Score, e.Analysis.Classification)
		} else {
			line = "⚪ " + line + " | n/a"
		}
		if e.Simulated {
			line += " (sim)"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatClassificationChange renders the alert sent when a symbol moves between classifications.
func FormatClassificationChange(e model.BoardEntry, previous model.Classification) string {
	if e.Analysis == nil {
		return ""
	}
	a := e.Analysis
	return fmt.Sprintf("🔔 <b>%s</b>: %s → %s %s\nScore %d/100 at %s (%s)\n%s",
		html.EscapeString(e.Instrument.Symbol), previous, toneIcon(a.Classification), a.Classification,
		a.Score, FormatPrice(e.Quote.Price, e.Instrument.Precision), changeText(e.Quote),
		html.EscapeString(a.Summary))
}

// FormatNews renders headlines with their age relative to now.
func FormatNews(items []model.NewsItem, now time.Time) string {
	var b strings.Builder
	b.WriteString("📰 <b>Market news</b>\n")
	if len(items) == 0 {
		b.WriteString("\nNo headlines.\n")
		return b.String()
	}
	for _, it := range items {
		icon := "•"
		switch it.Impact {
		case model.ImpactPositive:
			icon = "▲"
		case model.ImpactNegative:
			icon = "▼"
		}
		title := html.EscapeString(it.Title)
		if it.URL != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(it.URL), title)
		}
		b.WriteString(fmt.Sprintf("\n%s %s\n", icon, title))
		meta := html.EscapeString(it.Source)
		if !it.PublishedAt.IsZero() {
			meta += " · " + humanize.RelTime(it.PublishedAt, now, "ago", "from now")
		}
		b.WriteString("  " + meta + "\n")
	}
	return b.String()
}

// HelpText lists the bot commands.
func HelpText() string {
	return "Available commands:\n" +
		"• /board for the latest classification of every symbol\n" +
		"• /analyze SYMBOL for the full breakdown of one symbol\n" +
		"• /news for recent market headlines\n" +
		"• /help for this message"
}
