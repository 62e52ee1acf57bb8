// Package worker contains the components the scheduler tick drives:
// the Submitter (moves pending jobs to processing), the Poller (status
// checks on in-flight jobs), the Completer (lock-guarded artifact
// creation and finalization), the Drainer (budget-checked tick
// orchestrator), and the retention Sweeper. All cross-tick coordination
// goes through the job store; no in-memory state survives between ticks.
package worker
