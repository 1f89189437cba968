// Package metrics implements the Metrics Aggregator: total_requests
// (monotonic), rps (rolling 10s window), flow_count (monotonic),
// avg_flow_duration_ms (rolling mean over the last 100 completions), and
// active_simulated_users. See Aggregator, and DESIGN.md for the rolling
// window and average-window size decisions.
package metrics
