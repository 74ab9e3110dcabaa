package health

import (
	"strings"

	"kvstore/internal/logs"
	"kvstore/internal/metrics"
)

// logWindow is how many recent log entries are scanned per report.
const logWindow = 100

// Analyzer converts metrics and logs into a health report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	rules   []Rule
}

func NewAnalyzer(reg *metrics.Registry, logger *logs.Logger) *Analyzer {
	return &Analyzer{
		metrics: reg,
		logger:  logger,
		rules: []Rule{
			ProtocolErrorRule,
			ConnectionErrorRule,
			ReaperIdleRule,
		},
	}
}

// Analyze evaluates metrics and logs and returns a health report.
func (a *Analyzer) Analyze() Report {
	snapshot := a.metrics.Snapshot()

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	escalate := func(s Status) {
		switch {
		case s == StatusCritical:
			status = StatusCritical
		case s == StatusDegraded && status == StatusOK:
			status = StatusDegraded
		}
	}

	for _, rule := range a.rules {
		result := rule(snapshot)
		if !result.Triggered {
			continue
		}
		signals = append(signals, result.Signal)
		recommendations = append(recommendations, result.Recommendation)
		escalate(result.Severity)
	}

	connWarnings, panics := 0, 0
	for _, entry := range a.logger.GetLast(logWindow) {
		switch {
		case entry.Level == logs.WARN && strings.Contains(entry.Message, "connection error"):
			connWarnings++
		case entry.Level == logs.ERROR && strings.Contains(entry.Message, "panic"):
			panics++
		}
	}

	if connWarnings >= 3 {
		signals = append(signals, "Repeated connection errors detected in logs")
		recommendations = append(recommendations, "Look for misbehaving clients or oversized request lines")
		escalate(StatusDegraded)
	}

	if panics > 0 {
		signals = append(signals, "Application panics detected in logs")
		recommendations = append(recommendations, "Inspect stack traces and stabilize error handling")
		escalate(StatusCritical)
	}

	summary := "System is healthy"
	if status != StatusOK {
		summary = "System health issues detected"
	}

	return Report{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
	}
}
