package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// TagFormat represents how a tag label is rendered.
	TagFormat string

	// AnalyzerKind represents the structural tag analyzer in use.
	AnalyzerKind string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string

	// ChangeKind represents the kind of a line-level change.
	ChangeKind string

	// FileStatus represents how a file was touched by a commit.
	FileStatus string
)

// All output modes supported.
const (
	TSVOut     OutputMode = "tsv" // default
	TextOut    OutputMode = "text"
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All tag formats supported.
const (
	HumanFormat TagFormat = "human" // default
	ShortFormat TagFormat = "short"
	JSONFormat  TagFormat = "json"
)

// All tag analyzers supported.
const (
	CTagsAnalyzer      AnalyzerKind = "ctags" // default
	TreeSitterAnalyzer AnalyzerKind = "treesitter"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Line change kinds.
const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
)

// File statuses reported by the log.
const (
	FileAdded    FileStatus = "added"
	FileDeleted  FileStatus = "deleted"
	FileModified FileStatus = "modified"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TSVOut:     {},
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidTagFormats lists all valid tag formats.
var ValidTagFormats = map[TagFormat]struct{}{
	HumanFormat: {},
	ShortFormat: {},
	JSONFormat:  {},
}

// ValidAnalyzers lists all valid tag analyzers.
var ValidAnalyzers = map[AnalyzerKind]struct{}{
	CTagsAnalyzer:      {},
	TreeSitterAnalyzer: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
