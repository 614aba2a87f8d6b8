package watcher

import (
	"fmt"
	"strings"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
)

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

func trend(d decimal.Decimal) string {
	switch d.Sign() {
	case 1:
		return "📈"
	case -1:
		return "📉"
	}
	return "➡️"
}

// FormatTrade renders one trade on a single line.
func FormatTrade(t models.Trade) string {
	line := fmt.Sprintf("%s %s %s @ $%s", t.Action, t.Amount.String(), t.Symbol, t.Price.StringFixed(8))
	if t.SignalTag != "" {
		line += " [" + t.SignalTag + "]"
	}
	return line
}

// FormatStatus renders the dashboard: balance, valuation, P&L and positions.
func FormatStatus(s models.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("📊 *PORTFOLIO*\n")
	sb.WriteString(fmt.Sprintf("Cash: $%s\n", s.CashBalance.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Value: $%s\n", s.TotalValuation.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("P&L: %s\n", signed(s.TotalPnL)))
	sb.WriteString(fmt.Sprintf("Trades: %d\n", s.TradeCount))

	if len(s.Positions) == 0 {
		sb.WriteString("\nNo positions open\n")
	} else {
		sb.WriteString("\n*Positions*\n")
		for _, p := range s.Positions {
			sb.WriteString(fmt.Sprintf("%s %s: %s coins, %s (%s%%)\n",
				trend(p.PnL), p.Symbol, p.Amount.String(), signed(p.PnL), p.PnLPercent.StringFixed(2)))
		}
	}

	sb.WriteString("\n*Recent Trades*\n")
	sb.WriteString(FormatHistory(s.RecentTrades))
	return sb.String()
}

// FormatMarket renders the price list.
func FormatMarket(assets []models.Asset) string {
	var sb strings.Builder
	sb.WriteString("🏛️ *MARKET*\n")
	for _, a := range assets {
		sb.WriteString(fmt.Sprintf("%-6s $%s  %s\n", a.Symbol, a.Price.StringFixed(8), a.DisplayName))
	}
	return sb.String()
}

// FormatHistory renders trades one per line, in the order given.
func FormatHistory(trades []models.Trade) string {
	if len(trades) == 0 {
		return "No trades yet\n"
	}
	var sb strings.Builder
	for _, t := range trades {
		sb.WriteString(FormatTrade(t))
		sb.WriteString("\n")
	}
	return sb.String()
}
