package metrics

// Rule firing results
const (
	RuleResultApplied = "applied"
	RuleResultFailed  = "failed"
	RuleResultSkipped = "skipped"
)

// RecordRuleFiring records one rule evaluation that matched its trigger
func (m *Metrics) RecordRuleFiring(trigger, action, result string) {
	m.safeExecute("RecordRuleFiring", func() {
		m.RuleFiringsTotal.WithLabelValues(trigger, action, result).Inc()
	})
}

// ObserveRuleChainDepth records the deepest level a chain reached
func (m *Metrics) ObserveRuleChainDepth(depth int) {
	m.safeExecute("ObserveRuleChainDepth", func() {
		m.RuleChainDepth.Observe(float64(depth))
	})
}

// IncrementRuleCycles counts a chain aborted at the depth limit
func (m *Metrics) IncrementRuleCycles() {
	m.safeExecute("IncrementRuleCycles", func() {
		m.RuleCyclesTotal.Inc()
	})
}

// IncrementDueDateFirings counts a due-date rule firing claimed for the day
func (m *Metrics) IncrementDueDateFirings() {
	m.safeExecute("IncrementDueDateFirings", func() {
		m.DueDateFiringsTotal.Inc()
	})
}

// SetRealtimeConnections sets the open websocket gauge
func (m *Metrics) SetRealtimeConnections(count int) {
	m.safeExecute("SetRealtimeConnections", func() {
		m.RealtimeConnections.Set(float64(count))
	})
}
