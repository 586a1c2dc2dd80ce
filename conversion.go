package peerwire

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kent-id/peerwire/types"
)

// Text layouts used by the SQL API in the jsonv2 result format.
const (
	dateLayout        = "2006/01/02"
	timeLayout        = "15:04:05.000000000"
	timestampLayout   = "2006-01-02T15:04:05.000000000"
	timestampTZLayout = "2006-01-02T15:04:05.000000000-0700"
)

// CoerceValue converts one raw cell into a wire-level Value according to its domain type.
// A nil cell is always Null.
func CoerceValue(cell *string, domain types.DomainType) (Value, error) {
	if cell == nil {
		return Null{}, nil
	}
	data := *cell

	switch domain {
	case types.DomainFixed:
		// scaled numbers do not fit int64 and are sent as their text
		v, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return Text(data), nil
		}
		return BigInt(v), nil
	case types.DomainReal:
		v, err := strconv.ParseFloat(data, 64)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return Float(v), nil
	case types.DomainText:
		return Text(data), nil
	case types.DomainBinary:
		v, err := hex.DecodeString(data)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return Binary(v), nil
	case types.DomainBoolean:
		switch data {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, coercionError(domain, data, fmt.Errorf("boolean must be true or false"))
	case types.DomainDate:
		v, err := time.Parse(dateLayout, data)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return Date(v), nil
	case types.DomainTime:
		v, err := time.Parse(timeLayout, data)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return Time(v), nil
	case types.DomainTimestampNTZ:
		v, err := time.Parse(timestampLayout, data)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return Timestamp(v), nil
	case types.DomainTimestampLTZ, types.DomainTimestampTZ:
		v, err := parseTimestampTZ(data)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return TimestampWithTimeZone(v), nil
	case types.DomainVariant, types.DomainObject, types.DomainArray:
		v, err := ParseJSON(data)
		if err != nil {
			return nil, coercionError(domain, data, err)
		}
		return v, nil
	default:
		return nil, coercionError(domain, data, fmt.Errorf("unsupported domain type"))
	}
}

// parseTimestampTZ accepts both the numeric offset spelling and the "Z" spelling of
// UTC and normalizes the result to UTC.
func parseTimestampTZ(data string) (time.Time, error) {
	v, err := time.Parse(timestampTZLayout, data)
	if err != nil {
		var retryErr error
		v, retryErr = time.Parse(timestampTZLayout, strings.ReplaceAll(data, "Z", "+0000"))
		if retryErr != nil {
			return time.Time{}, err
		}
	}
	return v.UTC(), nil
}

func coercionError(domain types.DomainType, data string, err error) error {
	return NewValueCoercionError(fmt.Sprintf("invalid %s value %q", domain, data), err)
}

// convertRow coerces one raw row. The row width must match the number of domains.
func convertRow(schema *Schema, domains []types.DomainType, row []*string) (*Record, error) {
	if len(row) != len(domains) {
		err := fmt.Errorf("row has %d cells, schema has %d columns", len(row), len(domains))
		return nil, NewNetworkError("malformed partition row", err)
	}

	values := make([]Value, len(row))
	for index, cell := range row {
		v, err := CoerceValue(cell, domains[index])
		if err != nil {
			LogDebugf("coercion failed for column %d (%s): %v", index, schema.Field(index).Name, err)
			return nil, err
		}
		values[index] = v
	}
	return &Record{Schema: schema, Values: values}, nil
}
