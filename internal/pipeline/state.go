package pipeline

// State is the lifecycle of an Importer.
type State int

const (
	// Disconnected: no connection yet
	Disconnected State = iota
	// Connected: transaction open, table not yet created
	Connected
	// SchemaResolved: table created or reused
	SchemaResolved
	// Streaming: rows are being inserted
	Streaming
	// Committed: transaction committed
	Committed
	// Aborted: transaction rolled back after a failure
	Aborted
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case SchemaResolved:
		return "schema_resolved"
	case Streaming:
		return "streaming"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// active reports whether the transaction is open.
func (s State) active() bool {
	return s == Connected || s == SchemaResolved || s == Streaming
}
