package telemetry

import "tradercore/internal/risk"

// RiskAuditSink publishes every risk decision onto ChannelTraderStatus,
// satisfying risk.AuditSink so CanOpenPosition's gate decisions reach the
// same dashboard as position and market-data events instead of only the
// structured log line risk.Manager always emits.
type RiskAuditSink struct {
	hub *Hub
}

// NewRiskAuditSink wraps hub as a risk.AuditSink.
func NewRiskAuditSink(hub *Hub) *RiskAuditSink {
	return &RiskAuditSink{hub: hub}
}

// RiskDecisionEvent is the payload published for each risk decision.
type RiskDecisionEvent struct {
	TraderID string
	Notional float64
	Leverage int
	Allowed  bool
	Reason   string
}

// PublishRiskDecision implements risk.AuditSink.
func (s *RiskAuditSink) PublishRiskDecision(traderID string, decision risk.Decision, notional float64, leverage int) {
	s.hub.Publish(ChannelTraderStatus, RiskDecisionEvent{
		TraderID: traderID,
		Notional: notional,
		Leverage: leverage,
		Allowed:  decision.Allowed,
		Reason:   decision.Reason,
	})
}

var _ risk.AuditSink = (*RiskAuditSink)(nil)
