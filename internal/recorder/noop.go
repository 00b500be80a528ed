package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(_ *Evaluation) error     { return nil }
func (n *NoopRecorder) RecordExecution(_ *Execution) error       { return nil }
func (n *NoopRecorder) RecordConfigChange(_ *ConfigChange) error { return nil }
func (n *NoopRecorder) RecordDeposit(_ *Deposit) error           { return nil }
func (n *NoopRecorder) Close() error                             { return nil }
