package metrics

// Move results recorded by RecordOpportunityMove.
const (
	MoveResultSuccess = "success"
	MoveResultFailure = "failure"
	MoveResultDenied  = "denied"
)

// RecordOpportunityMove counts a stage move attempt by result
func (m *Metrics) RecordOpportunityMove(result string) {
	m.safeExecute("RecordOpportunityMove", func() {
		m.OpportunityMovesTotal.WithLabelValues(result).Inc()
	})
}

// IncrementLeadConverted increments the lead conversion counter
func (m *Metrics) IncrementLeadConverted() {
	m.safeExecute("IncrementLeadConverted", func() {
		m.LeadConversionsTotal.Inc()
	})
}

// IncrementStageDegraded counts a stage column served empty after a failed fetch
func (m *Metrics) IncrementStageDegraded() {
	m.safeExecute("IncrementStageDegraded", func() {
		m.BoardStagesDegradedTotal.Inc()
	})
}

func (m *Metrics) BoardSessionOpened() {
	m.safeExecute("BoardSessionOpened", func() {
		m.BoardSessionsActive.Inc()
	})
}

func (m *Metrics) BoardSessionClosed() {
	m.safeExecute("BoardSessionClosed", func() {
		m.BoardSessionsActive.Dec()
	})
}

// SetOpportunitiesTotal replaces the per-status opportunity gauge values
func (m *Metrics) SetOpportunitiesTotal(byStatus map[string]int64) {
	m.safeExecute("SetOpportunitiesTotal", func() {
		m.OpportunitiesTotal.Reset()
		for status, count := range byStatus {
			m.OpportunitiesTotal.WithLabelValues(status).Set(float64(count))
		}
	})
}

// SetLeadsTotal replaces the per-status lead gauge values
func (m *Metrics) SetLeadsTotal(byStatus map[string]int64) {
	m.safeExecute("SetLeadsTotal", func() {
		m.LeadsTotal.Reset()
		for status, count := range byStatus {
			m.LeadsTotal.WithLabelValues(status).Set(float64(count))
		}
	})
}
