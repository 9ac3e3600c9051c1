package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"SignalSentinel/internal/model"
)

var labelBadges = map[model.Label]string{
	model.LabelBuy:  "✅ BUY",
	model.LabelSell: "❌ SELL",
	model.LabelHold: "⏸ HOLD",
}

// FormatSignal formats one evaluation into a Telegram HTML message.
func FormatSignal(ev *model.Evaluation) string {
	var b strings.Builder
	sig := ev.Signal
	ind := ev.Indicators

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s) | %s\n", html.EscapeString(ev.Symbol), ev.Timeframe, ev.Mode))
	b.WriteString(fmt.Sprintf("Price: %s\n\n", formatPrice(ev.Price)))

	b.WriteString(fmt.Sprintf("EMA20: %s | EMA50: %s | EMA200: %s\n",
		formatPrice(ind.EMAFast), formatPrice(ind.EMAMid), formatPrice(ind.EMASlow)))
	b.WriteString(fmt.Sprintf("RSI: %s | MACD: %s | Signal: %s\n",
		formatFixed(ind.RSI, 2), formatFixed(ind.MACD, 6), formatFixed(ind.MACDSignal, 6)))
	b.WriteString(fmt.Sprintf("ATR: %s\n\n", formatPrice(ind.ATR)))

	b.WriteString(fmt.Sprintf("➡️ <b>Signal: %s</b>", labelBadges[sig.Label]))
	if sig.Strength > model.StrengthNone {
		b.WriteString(fmt.Sprintf(" (%s %s)", sig.Strength, strings.Repeat("★", int(sig.Strength))))
	}
	b.WriteString("\n")
	if sig.Reason != "" {
		b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(sig.Reason)))
	}
	if len(sig.Factors) > 0 {
		b.WriteString(fmt.Sprintf("Score: buy %.2f / sell %.2f\n", sig.BuyScore, sig.SellScore))
		for _, f := range sig.Factors {
			b.WriteString(fmt.Sprintf("  • %s %s %+.1f: %s\n", f.Name, f.Side, f.Weight, html.EscapeString(f.Commentary)))
		}
	}

	if ev.Levels != nil {
		b.WriteString("\n")
		b.WriteString(formatLevels(ev.Levels))
	}
	if sig.NearLevel != nil {
		b.WriteString(fmt.Sprintf("📍 Near %s %s\n", sig.NearLevel.Kind, formatPrice(sig.NearLevel.Price)))
	}
	return b.String()
}

func formatLevels(set *model.LevelSet) string {
	if set.Empty() {
		return "No support/resistance levels found\n"
	}
	var b strings.Builder
	write := func(title string, levels []model.Level) {
		if len(levels) == 0 {
			return
		}
		prices := make([]string, len(levels))
		for i, l := range levels {
			prices[i] = formatPrice(l.Price)
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", title, strings.Join(prices, ", ")))
	}
	write("🟢 Supports", set.Supports)
	write("🔴 Resistances", set.Resistances)
	return b.String()
}

// FormatSubscriptions lists an owner's subscriptions for /status.
func FormatSubscriptions(subs []model.Subscription) string {
	if len(subs) == 0 {
		return "No subscriptions. Send /help to get started."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Subscriptions</b>\n\n")
	for _, s := range subs {
		icon := "⏸"
		if s.Polling() {
			icon = "▶️"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", icon, html.EscapeString(s.String())))
	}
	return b.String()
}

// formatPrice prints more decimals for sub-unit prices.
func formatPrice(v float64) string {
	if math.Abs(v) < 1 {
		return formatFixed(v, 6)
	}
	return formatFixed(v, 4)
}

func formatFixed(v float64, places int32) string {
	if !model.Valid(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
