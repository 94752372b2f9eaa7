package integrity

// Exported aliases for testing internal functions from
// the integrity_test package.

// IsRemoteForTest exposes isRemote.
var IsRemoteForTest = isRemote

// StripQueryForTest exposes stripQuery.
var StripQueryForTest = stripQuery
