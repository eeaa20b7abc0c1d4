package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/utils"
)

var signalTitles = map[string]struct {
	title string
	emoji string
}{
	entity.SignalTypeProfitTarget:   {"Profit Target Reached!", "🎯"},
	entity.SignalTypeStopLoss:       {"Stop Loss Breached!", "🛑"},
	entity.SignalTypeStopLossNear:   {"Approaching Stop Loss", "⚠️"},
	entity.SignalTypeReversal:       {"Technical Reversal", "📉"},
	entity.SignalTypeSentimentShift: {"Sentiment Shift", "📰"},
	entity.SignalTypeTimeExit:       {"Time Exit", "⏰"},
}

// FormatExitSignalMessage formats an exit signal alert into a Markdown string for Telegram.
func FormatExitSignalMessage(position *entity.LivePosition, signal *entity.ExitSignal) string {
	var sb strings.Builder

	meta, ok := signalTitles[signal.SignalType]
	if !ok {
		meta.title = "Exit Signal"
		meta.emoji = "🔔"
	}

	sb.WriteString(fmt.Sprintf("%s [%s] %s\n", meta.emoji, position.StockCode, meta.title))
	sb.WriteString(fmt.Sprintf("💵 Entry: %.2f (%s)\n", position.EntryPrice, utils.PrettyDate(position.EntryDate)))
	sb.WriteString(fmt.Sprintf("💰 Current: %.2f (%+.2f%%)\n", signal.CurrentPrice, signal.ReturnPct))
	if signal.TargetPrice != nil {
		sb.WriteString(fmt.Sprintf("🎯 Target: %.2f\n", *signal.TargetPrice))
	}
	sb.WriteString(fmt.Sprintf("⚡ Urgency: %s\n", strings.ToUpper(signal.Urgency)))
	sb.WriteString(fmt.Sprintf("🧠 %s\n", signal.Reason))
	sb.WriteString(fmt.Sprintf("📅 %s\n", utils.PrettyDate(signal.SignalDate)))

	return sb.String()
}

// FormatMonitoringSummaryMessage formats the result of one monitoring pass.
func FormatMonitoringSummaryMessage(checked, created, alerts, errors int, finishedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("📋 **Position Monitoring Summary**\n")
	sb.WriteString(fmt.Sprintf("• Positions checked: %d\n", checked))
	sb.WriteString(fmt.Sprintf("• Signals created: %d\n", created))
	sb.WriteString(fmt.Sprintf("• Alerts sent: %d\n", alerts))
	if errors > 0 {
		sb.WriteString(fmt.Sprintf("• Errors: %d\n", errors))
	}
	sb.WriteString(fmt.Sprintf("📅 %s\n", utils.PrettyDate(finishedAt)))

	return sb.String()
}

func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}
