package metrics

// IncrementProjectCreated increments project creation counter
func (m *Metrics) IncrementProjectCreated() {
	m.safeExecute("IncrementProjectCreated", func() {
		m.ProjectCreatedTotal.Inc()
	})
}

// IncrementTaskCreated increments task creation counter
func (m *Metrics) IncrementTaskCreated() {
	m.safeExecute("IncrementTaskCreated", func() {
		m.TaskCreatedTotal.Inc()
	})
}

// IncrementTaskMoved counts a move. kind is "reorder" or "regroup".
func (m *Metrics) IncrementTaskMoved(kind string) {
	m.safeExecute("IncrementTaskMoved", func() {
		m.TaskMovedTotal.WithLabelValues(kind).Inc()
	})
}

// SetProjectsTotal sets total projects gauge
func (m *Metrics) SetProjectsTotal(count int64) {
	m.safeExecute("SetProjectsTotal", func() {
		m.ProjectsTotal.Set(float64(count))
	})
}

// SetTasksTotal sets total tasks gauge
func (m *Metrics) SetTasksTotal(count int64) {
	m.safeExecute("SetTasksTotal", func() {
		m.TasksTotal.Set(float64(count))
	})
}

// SetActiveRulesTotal sets active rules gauge
func (m *Metrics) SetActiveRulesTotal(count int64) {
	m.safeExecute("SetActiveRulesTotal", func() {
		m.ActiveRulesTotal.Set(float64(count))
	})
}
