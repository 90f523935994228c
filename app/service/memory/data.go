package memory

// Fact is a stored piece of long-term knowledge. The store injects the
// metadata keys below; caller-supplied data may override them.
type Fact = map[string]any

// Metadata keys injected on store.
const (
	keyFactID    = "fact_id"
	keyUserID    = "user_id"
	keyTimestamp = "timestamp"
	keyRetention = "retention_policy"
)

const defaultRetentionPolicy = "permanent"

// memoryFile is the on-disk shape: user id -> fact id -> fact.
type memoryFile = map[string]map[string]Fact
