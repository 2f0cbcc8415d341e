package logging

// Standardized structured logging keys shared across commands.
const (
	// FieldComponent names the emitting component.
	FieldComponent = "component"
	// FieldRunID carries the recorded run identifier.
	FieldRunID = "run_id"
	// FieldTable names the remote table being processed.
	FieldTable = "table"
	// FieldKey carries an identity key or object key.
	FieldKey = "key"
	// FieldBatch carries a 1-based delete batch index.
	FieldBatch = "batch"
)
