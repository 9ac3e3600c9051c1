package scheduler

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/registry"
)

const (
	buttonRefresh    = "🔄 Refresh"
	buttonChangePair = "📌 Change pair"
)

const helpText = `Available commands:
• /track &lt;pair&gt; [tf] - follow a pair on a timeframe
• /levels &lt;pair&gt; [tf] - signals with support/resistance
• /scalp &lt;pair&gt; - 1-minute polling on 5m bars
• /auto - scan the whole universe
• /tf &lt;tf&gt; - choose the timeframe for the selected pair
• /refresh - re-evaluate now
• /status - list subscriptions
• /stop - stop everything`

// HandleCommand processes one chat message and returns the reply for that chat.
func (s *Scheduler) HandleCommand(chatID int64, text string) notifier.Reply {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return notifier.Reply{}
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // "/track@SomeBot"
	}
	args := fields[1:]

	switch {
	case cmd == "/start":
		return s.pairPrompt("👋 Welcome! Choose a trading pair:")
	case cmd == "/help":
		return notifier.Reply{Text: helpText}
	case cmd == "/track":
		return s.cmdPair(chatID, model.ModeManual, args)
	case cmd == "/levels":
		return s.cmdPair(chatID, model.ModeLevels, args)
	case cmd == "/scalp":
		return s.cmdPair(chatID, model.ModeScalp, args)
	case cmd == "/auto":
		return s.cmdAuto(chatID)
	case cmd == "/tf":
		if len(args) != 1 {
			return s.timeframePrompt("Usage: /tf &lt;timeframe&gt;")
		}
		return s.cmdTimeframe(chatID, args[0])
	case cmd == "/refresh" || text == buttonRefresh:
		if s.Refresh(chatID) == 0 {
			return s.pairPrompt("⚠️ Nothing to refresh. Choose a pair first:")
		}
		return notifier.Reply{}
	case text == buttonChangePair:
		return s.pairPrompt("Choose a trading pair:")
	case cmd == "/status":
		return notifier.Reply{Text: notifier.FormatSubscriptions(s.Registry.List(chatID))}
	case cmd == "/stop":
		stopped := s.StopOwner(chatID)
		return notifier.Reply{Text: fmt.Sprintf("⏹ Stopped %d subscription(s).", len(stopped)), RemoveKeyboard: true}
	}

	if len(fields) == 1 {
		if pair, ok := s.normalizePair(fields[0]); ok {
			return s.cmdPair(chatID, model.ModeManual, []string{pair})
		}
		if s.knownTimeframe(fields[0]) {
			return s.cmdTimeframe(chatID, fields[0])
		}
	}
	return notifier.Reply{
		Text:     "Use the buttons below or send /help.",
		Keyboard: [][]string{{buttonRefresh, buttonChangePair}},
	}
}

func (s *Scheduler) cmdPair(chatID int64, mode model.Mode, args []string) notifier.Reply {
	if len(args) == 0 || len(args) > 2 {
		return s.pairPrompt(fmt.Sprintf("Usage: /%s &lt;pair&gt; [timeframe]. Choose a pair:", commandName(mode)))
	}
	pair, ok := s.normalizePair(args[0])
	if !ok {
		return s.pairPrompt("❌ This pair is not in the list. Choose one of the buttons.")
	}
	if _, err := s.SelectPair(chatID, mode, pair); err != nil {
		log.Printf("[ERROR] select pair %s for %d: %v", pair, chatID, err)
		return notifier.Reply{Text: "⚠️ Could not select the pair, try again."}
	}
	switch {
	case mode == model.ModeScalp:
		return s.afterSignal(fmt.Sprintf("⚡ Scalping %s on %s, checking every minute.", pair, s.Cfg.Tracking.ScalpTimeframe))
	case len(args) == 2:
		return s.cmdTimeframe(chatID, args[1])
	default:
		return s.timeframePrompt(fmt.Sprintf("✅ Pair selected: %s\nNow choose a timeframe:", pair))
	}
}

func (s *Scheduler) cmdTimeframe(chatID int64, tf string) notifier.Reply {
	if !s.knownTimeframe(tf) {
		return s.timeframePrompt("❌ This timeframe is not supported. Choose one from the list.")
	}
	mode, ok := s.pendingMode(chatID)
	if !ok {
		mode = model.ModeManual
	}
	sub, err := s.SelectTimeframe(chatID, mode, tf)
	if errors.Is(err, registry.ErrNoPair) {
		return s.pairPrompt("⚠️ Choose a pair first:")
	}
	if err != nil {
		log.Printf("[ERROR] select timeframe %s for %d: %v", tf, chatID, err)
		return notifier.Reply{Text: "⚠️ Could not start tracking, try again."}
	}
	return s.afterSignal(fmt.Sprintf("▶️ Tracking %s (%s) in %s mode. Send /stop to cancel.", sub.Symbol, sub.Timeframe, sub.Mode))
}

func (s *Scheduler) cmdAuto(chatID int64) notifier.Reply {
	if _, err := s.EnableAuto(chatID); err != nil {
		log.Printf("[ERROR] enable auto for %d: %v", chatID, err)
		return notifier.Reply{Text: "⚠️ Could not enable the auto scan, try again."}
	}
	return notifier.Reply{Text: fmt.Sprintf("🛰 Auto scan on: %d pairs × %s every 5 minutes.",
		len(s.Cfg.Tracking.AutoUniverse), strings.Join(s.Cfg.Tracking.AutoTimeframes, "/"))}
}

// normalizePair accepts "BTCUSDT", "btc/usdt" or "BTC / USDT" and checks it against the tracked pairs.
func (s *Scheduler) normalizePair(text string) (string, bool) {
	candidate := strings.ToUpper(strings.ReplaceAll(text, " ", ""))
	if !strings.Contains(candidate, "/") && len(candidate) > 4 && strings.HasSuffix(candidate, "USDT") {
		candidate = candidate[:len(candidate)-4] + "/USDT"
	}
	for _, p := range s.Cfg.Tracking.Pairs {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

func (s *Scheduler) knownTimeframe(tf string) bool {
	for _, t := range s.Cfg.Tracking.Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

func (s *Scheduler) pairPrompt(text string) notifier.Reply {
	keys := make([][]string, len(s.Cfg.Tracking.Pairs))
	for i, p := range s.Cfg.Tracking.Pairs {
		keys[i] = []string{p}
	}
	return notifier.Reply{Text: text, Keyboard: keys}
}

func (s *Scheduler) timeframePrompt(text string) notifier.Reply {
	keys := make([][]string, len(s.Cfg.Tracking.Timeframes))
	for i, tf := range s.Cfg.Tracking.Timeframes {
		keys[i] = []string{tf}
	}
	return notifier.Reply{Text: text, Keyboard: keys}
}

func (s *Scheduler) afterSignal(text string) notifier.Reply {
	return notifier.Reply{Text: text, Keyboard: [][]string{{buttonRefresh, buttonChangePair}}}
}

func commandName(mode model.Mode) string {
	if mode == model.ModeManual {
		return "track"
	}
	return string(mode)
}
