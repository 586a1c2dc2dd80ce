package types

// DomainType is a peer's native column type tag as reported in result set metadata.
type DomainType string

const (
	DomainFixed        DomainType = "fixed"
	DomainReal         DomainType = "real"
	DomainText         DomainType = "text"
	DomainBinary       DomainType = "binary"
	DomainBoolean      DomainType = "boolean"
	DomainDate         DomainType = "date"
	DomainTime         DomainType = "time"
	DomainTimestampLTZ DomainType = "timestamp_ltz"
	DomainTimestampNTZ DomainType = "timestamp_ntz"
	DomainTimestampTZ  DomainType = "timestamp_tz"
	DomainVariant      DomainType = "variant"
	DomainObject       DomainType = "object"
	DomainArray        DomainType = "array"
)

// The metadata and rows that comprise a query result set. The metadata describes
// the column structure, data types and partitions. To return a ResultSet object,
// submit a statement to the SQL API.
type ResultSet struct {
	// Status code returned by the SQL API, "090001" on success.
	Code string `json:"code,omitempty"`

	// Human readable status message.
	Message string `json:"message,omitempty"`

	// Opaque identifier correlating every partition fetch of one execution.
	//
	// This member is required.
	StatementHandle string `json:"statementHandle"`

	// Execution creation time in epoch milliseconds.
	CreatedOn int64 `json:"createdOn,omitempty"`

	// The metadata that describes the column structure and data types of a table of
	// query results.
	ResultSetMetaData ResultSetMetaData `json:"resultSetMetaData"`

	// The rows of the currently buffered partition. Each cell is nil for SQL NULL.
	Data [][]*string `json:"data"`
}

// The metadata that describes the column structure, data types and partitions of
// a table of query results.
type ResultSetMetaData struct {
	// Total number of rows across all partitions.
	NumRows int64 `json:"numRows"`

	// Encoding of the data field, "jsonv2" for the text cell format.
	Format string `json:"format,omitempty"`

	// Information about the columns returned in a query result metadata.
	RowType []RowType `json:"rowType"`

	// One entry per partition, in partition order. Partition 0 is returned inline.
	PartitionInfo []PartitionInfo `json:"partitionInfo"`
}

// Information about a column in a query execution result.
type RowType struct {
	// The name of the column.
	//
	// This member is required.
	Name string `json:"name"`

	// The domain type of the column.
	//
	// This member is required.
	Type DomainType `json:"type"`

	// Indicates the column's nullable status.
	Nullable bool `json:"nullable"`

	// The database to which the column belongs.
	Database string `json:"database,omitempty"`

	// The schema to which the column belongs.
	Schema string `json:"schema,omitempty"`

	// The table to which the column belongs.
	Table string `json:"table,omitempty"`

	// For fixed data types, the total number of digits.
	Precision int32 `json:"precision,omitempty"`

	// For fixed data types, the number of digits in the fractional part.
	Scale int32 `json:"scale,omitempty"`

	// For text and binary data types, the maximum length.
	Length int64 `json:"length,omitempty"`
}

// Size information about a single partition.
type PartitionInfo struct {
	RowCount         int64 `json:"rowCount"`
	UncompressedSize int64 `json:"uncompressedSize"`
	CompressedSize   int64 `json:"compressedSize,omitempty"`
}

// PartitionResult is the body returned when fetching a partition past the first.
type PartitionResult struct {
	Data [][]*string `json:"data"`
}
