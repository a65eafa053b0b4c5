package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// ScmBackend represents the source control system a log is collected from.
	ScmBackend string

	// Kind is the categorical kind of a changed path.
	Kind string

	// Action is the categorical action applied to a changed path.
	Action string

	// ColumnType is the semantic type of a canonical log column.
	ColumnType string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All source control backends supported.
const (
	AutoScm ScmBackend = "auto" // default, detected from the working copy
	GitScm  ScmBackend = "git"
	SvnScm  ScmBackend = "svn"
)

// Known kinds. Subversion reports its own kinds ("file", "dir") verbatim.
const (
	FileKind    Kind = "f" // path row produced by git
	NoPathsKind Kind = "X" // commit that touched no listed path
	SvnFileKind Kind = "file"
	SvnDirKind  Kind = "dir"
)

// Subversion path actions. Git never sets an action.
const (
	NoAction       Action = ""
	AddedAction    Action = "A"
	ModifiedAction Action = "M"
	DeletedAction  Action = "D"
	ReplacedAction Action = "R"
)

// Column types of the canonical log table.
const (
	TextColumn      ColumnType = "text"
	TimestampColumn ColumnType = "timestamp"
	CategoryColumn  ColumnType = "category"
	BoolColumn      ColumnType = "bool"
	FloatColumn     ColumnType = "float"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidScmBackends lists all valid source control backends.
var ValidScmBackends = map[ScmBackend]struct{}{
	AutoScm: {},
	GitScm:  {},
	SvnScm:  {},
}
