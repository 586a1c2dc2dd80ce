package peerwire

import (
	"fmt"

	"github.com/kent-id/peerwire/types"
)

// WireType is the PostgreSQL type OID of a field.
type WireType uint32

const (
	WireBool        WireType = 16
	WireBytea       WireType = 17
	WireText        WireType = 25
	WireFloat8      WireType = 701
	WireDate        WireType = 1082
	WireTime        WireType = 1083
	WireTimestamp   WireType = 1114
	WireTimestampTZ WireType = 1184
	WireNumeric     WireType = 1700
	WireJSONB       WireType = 3802
)

var wireTypeNames = map[WireType]string{
	WireBool:        "bool",
	WireBytea:       "bytea",
	WireText:        "text",
	WireFloat8:      "float8",
	WireDate:        "date",
	WireTime:        "time",
	WireTimestamp:   "timestamp",
	WireTimestampTZ: "timestamptz",
	WireNumeric:     "numeric",
	WireJSONB:       "jsonb",
}

func (t WireType) String() string {
	if name, ok := wireTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("oid(%d)", uint32(t))
}

// FieldFormat is the wire encoding of a field's values.
type FieldFormat int16

const (
	FieldFormatText   FieldFormat = 0
	FieldFormatBinary FieldFormat = 1
)

// Field describes one column of a Schema.
type Field struct {
	Name   string
	Type   WireType
	Format FieldFormat
}

// Schema is the ordered, immutable field list shared by every Record of one stream.
type Schema struct {
	fields []Field
}

// NewSchemaFromFields builds a Schema from fields, which are copied.
func NewSchemaFromFields(fields []Field) *Schema {
	return &Schema{fields: append([]Field(nil), fields...)}
}

// Fields returns a copy of the schema's fields.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Record is one row, positionally aligned with Schema.
type Record struct {
	Schema *Schema
	Values []Value
}

var domainWireTypes = map[types.DomainType]WireType{
	types.DomainFixed:        WireNumeric,
	types.DomainReal:         WireFloat8,
	types.DomainText:         WireText,
	types.DomainBinary:       WireBytea,
	types.DomainBoolean:      WireBool,
	types.DomainDate:         WireDate,
	types.DomainTime:         WireTime,
	types.DomainTimestampLTZ: WireTimestampTZ,
	types.DomainTimestampNTZ: WireTimestamp,
	types.DomainTimestampTZ:  WireTimestampTZ,
	types.DomainVariant:      WireJSONB,
	types.DomainObject:       WireJSONB,
	types.DomainArray:        WireJSONB,
}

// DomainWireType maps a peer domain type to its fixed wire type.
func DomainWireType(d types.DomainType) (WireType, bool) {
	t, ok := domainWireTypes[d]
	return t, ok
}

// NewSchema reads the wire schema from result set metadata.
func NewSchema(metadata *types.ResultSetMetaData) (*Schema, error) {
	schema, _, err := newResultSetSchema(metadata)
	return schema, err
}

// newResultSetSchema also returns the domain of each column, in column order, for
// use during value coercion.
func newResultSetSchema(metadata *types.ResultSetMetaData) (*Schema, []types.DomainType, error) {
	if metadata == nil || len(metadata.RowType) <= 0 {
		err := fmt.Errorf("at least one column be returned by the data set")
		return nil, nil, err
	}

	fields := make([]Field, 0, len(metadata.RowType))
	domains := make([]types.DomainType, 0, len(metadata.RowType))
	for index, rowType := range metadata.RowType {
		if rowType.Name == "" {
			err := fmt.Errorf("column name from result set is empty, index: %d, rowType: %+v", index, rowType)
			return nil, nil, err
		}

		if rowType.Type == "" {
			err := fmt.Errorf("column type from result set is empty, index: %d, name: %s, rowType: %+v", index, rowType.Name, rowType)
			return nil, nil, err
		}

		wireType, ok := DomainWireType(rowType.Type)
		if !ok {
			err := fmt.Errorf("column type from result set is not supported, index: %d, name: %s, type: %s", index, rowType.Name, rowType.Type)
			return nil, nil, err
		}

		fields = append(fields, Field{Name: rowType.Name, Type: wireType, Format: FieldFormatText})
		domains = append(domains, rowType.Type)
	}
	return &Schema{fields: fields}, domains, nil
}
