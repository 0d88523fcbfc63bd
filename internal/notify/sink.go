// Package notify implements the notification sink boundary (§6), grounded on
// the threshold-triggered alert pattern of the teacher's alert manager,
// generalized from a fixed in-memory alert list to a pluggable Sink interface.
package notify

import (
	"context"

	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Signal is the payload emitted for one consensus detection (§6 notification
// sink). Delivery is at-least-once from the core's perspective; sinks must be
// idempotent keyed on (Contract, PeriodStart) — the caller (C9) only calls Emit
// when its own upsert reports a material change, but a sink implementation must
// not assume Emit is called exactly once per period.
type Signal struct {
	Symbol             string
	Contract           string
	Chain              string
	WhaleCount         int
	TotalInvestmentUSD float64
	FirstBuyISO8601    string
	LastBuyISO8601     string
	Mcap               float64
	Liquidity           float64
	WalletAddresses    []string
}

// Sink accepts formatted consensus alerts.
type Sink interface {
	Emit(ctx context.Context, signal Signal) error
}

// LogSink is the default sink: structured-logs the signal rather than
// delivering it anywhere external, matching the teacher's own posture of
// recording alerts without a real external delivery integration wired.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Emit(ctx context.Context, signal Signal) error {
	s.logger.Info("consensus signal", map[string]interface{}{
		"symbol":        signal.Symbol,
		"contract":      signal.Contract,
		"chain":         signal.Chain,
		"whale_count":   signal.WhaleCount,
		"investment_usd": signal.TotalInvestmentUSD,
		"mcap":          signal.Mcap,
		"liquidity":     signal.Liquidity,
		"wallets":       signal.WalletAddresses,
	})
	return nil
}
