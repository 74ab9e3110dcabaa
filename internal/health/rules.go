package health

import "kvstore/internal/metrics"

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// minCommandsForErrorRate avoids flagging a handful of typos on a fresh server.
const minCommandsForErrorRate = 20

// ProtocolErrorRule fires when at least half of all commands were rejected.
func ProtocolErrorRule(snapshot map[string]int64) RuleResult {
	total := snapshot[string(metrics.CommandsTotal)]
	errs := snapshot[string(metrics.ProtocolErrorsTotal)]

	if total >= minCommandsForErrorRate && errs*2 >= total {
		return RuleResult{
			Triggered:      true,
			Signal:         "High protocol error rate",
			Recommendation: "Check client command syntax and versions",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// ConnectionErrorRule fires on any transport failure.
func ConnectionErrorRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.ConnErrorsTotal)] > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Connection errors detected",
			Recommendation: "Inspect client network stability and request line sizes",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// ReaperIdleRule fires when keys are stored but active expiry never ran.
func ReaperIdleRule(snapshot map[string]int64) RuleResult {
	keys := snapshot[string(metrics.KeysTotal)]
	runs := snapshot[string(metrics.TTLCleanupRunsTotal)]

	if keys > 0 && runs == 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Active expiry has not run",
			Recommendation: "Verify the expiry reaper is started and its interval is sane",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}
