package health

import (
	"testing"

	"kvstore/internal/logs"
	"kvstore/internal/metrics"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzer_OK(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	report := NewAnalyzer(reg, logger).Analyze()

	assert.Equal(t, StatusOK, report.OverallStatus)
	assert.Equal(t, "System is healthy", report.Summary)
	assert.Empty(t, report.Signals)
}

func TestAnalyzer_ProtocolErrorRate(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	reg.Add(metrics.CommandsTotal, 5)
	reg.Add(metrics.ProtocolErrorsTotal, 5)
	assert.Equal(t, StatusOK, NewAnalyzer(reg, logger).Analyze().OverallStatus,
		"too few commands to judge")

	reg.Add(metrics.CommandsTotal, 15)
	reg.Add(metrics.ProtocolErrorsTotal, 5)
	report := NewAnalyzer(reg, logger).Analyze()

	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "High protocol error rate")
}

func TestAnalyzer_MultipleMetricSignals(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	reg.Inc(metrics.ConnErrorsTotal)
	reg.Inc(metrics.KeysTotal)

	report := NewAnalyzer(reg, logger).Analyze()

	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Len(t, report.Signals, 2)
	assert.Len(t, report.Recommendations, 2)
}

func TestAnalyzer_ReaperIdleClearsAfterRun(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Inc(metrics.KeysTotal)
	reg.Inc(metrics.TTLCleanupRunsTotal)

	report := NewAnalyzer(reg, logs.NewLogger(10, logs.DEBUG)).Analyze()
	assert.Equal(t, StatusOK, report.OverallStatus)
}

func TestAnalyzer_LogBasedConnectionErrors(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	logger.Warn("connection error", "remote", "a")
	logger.Warn("connection error", "remote", "b")
	logger.Warn("connection error", "remote", "c")

	report := NewAnalyzer(reg, logger).Analyze()

	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "Repeated connection errors detected in logs")
}

func TestAnalyzer_LogBasedPanicDetection(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	logger.Error("panic recovered", "error", "runtime error")

	report := NewAnalyzer(reg, logger).Analyze()

	assert.Equal(t, StatusCritical, report.OverallStatus)
	assert.Contains(t, report.Signals, "Application panics detected in logs")
}
