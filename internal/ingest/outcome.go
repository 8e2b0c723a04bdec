package ingest

// Status classifies how an event fared in the pipeline. Callers branch on
// the distinction between an expected no-op and a real failure.
type Status int

const (
	// StatusApplied means the event mutated the position ledger.
	StatusApplied Status = iota
	// StatusSkipped means the event was handled without a position effect
	// (duplicate, non-MON swap, unknown wallet, unmappable amounts).
	StatusSkipped
	// StatusFailed means the event errored and was not marked processed;
	// it is eligible for a future retry.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-event result aggregated by the orchestrator.
type Outcome struct {
	TxHash string
	Status Status
	Reason string // set for StatusSkipped
	Err    error  // set for StatusFailed
}

// Applied reports an event that mutated the ledger.
func Applied(txHash string) Outcome {
	return Outcome{TxHash: txHash, Status: StatusApplied}
}

// Skipped reports an expected no-op.
func Skipped(txHash, reason string) Outcome {
	return Outcome{TxHash: txHash, Status: StatusSkipped, Reason: reason}
}

// Failed reports a real failure.
func Failed(txHash string, err error) Outcome {
	return Outcome{TxHash: txHash, Status: StatusFailed, Err: err}
}
