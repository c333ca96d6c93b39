package chatdb

// Type represents the relational backend holding conversations.
type Type string

const (
	// TypePostgres is the hosted relational backend.
	TypePostgres Type = "postgres"
	// TypeSQLite is a local single-file database.
	TypeSQLite Type = "sqlite"
	// TypeMemory keeps everything in process memory.
	TypeMemory Type = "memory"
)
