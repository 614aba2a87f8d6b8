package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
)

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

var commands = []CommandDoc{
	{"/buy", "Buy coins at the current price", "/buy DOGE 100"},
	{"/sell", "Sell coins at the current price", "/sell DOGE 50"},
	{"/status", "Balance, positions and P&L", "/status"},
	{"/market", "Current prices", "/market"},
	{"/history", "Latest trades", "/history [n]"},
	{"/signal", "Current hype signal", "/signal"},
	{"/help", "This list", "/help"},
}

// HandleCommand processes an inbound text command and returns the reply.
func (w *Watcher) HandleCommand(ctx context.Context, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "/buy":
		return w.handleTradeCommand(ctx, models.Buy, parts)
	case "/sell":
		return w.handleTradeCommand(ctx, models.Sell, parts)
	case "/status":
		return FormatStatus(w.engine.Snapshot())
	case "/market":
		return FormatMarket(w.engine.Snapshot().Prices)
	case "/history":
		n := 10
		if len(parts) > 1 {
			if _, err := fmt.Sscanf(parts[1], "%d", &n); err != nil || n <= 0 {
				return "Usage: /history [n]"
			}
		}
		return FormatHistory(w.engine.Recent(n))
	case "/signal":
		return "📡 " + w.Signal()
	case "/help":
		return getHelp()
	default:
		return "Unknown command. Try /buy, /sell, /status, /market or /history."
	}
}

func (w *Watcher) handleTradeCommand(ctx context.Context, action models.Action, parts []string) string {
	usage := fmt.Sprintf("Usage: /%s <symbol> <amount>", strings.ToLower(string(action)))
	if len(parts) != 3 {
		return usage
	}
	symbol := strings.ToUpper(parts[1])
	amount, err := decimal.NewFromString(parts[2])
	if err != nil || !amount.IsPositive() {
		return usage
	}

	trade, err := w.Execute(ctx, action, symbol, amount)
	if err != nil {
		var te *models.TradeError
		if errors.As(err, &te) {
			return "❌ Trade Failed: " + te.Reason()
		}
		return "⚠️ Error: " + err.Error()
	}
	return "🎯 Trade Executed Successfully!\n" + FormatTrade(*trade)
}

func getHelp() string {
	var sb strings.Builder
	sb.WriteString("*Commands*\n")
	for _, c := range commands {
		sb.WriteString(fmt.Sprintf("%s - %s (e.g. `%s`)\n", c.Name, c.Description, c.Example))
	}
	return sb.String()
}
