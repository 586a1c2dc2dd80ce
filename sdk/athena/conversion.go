package athena

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/kent-id/peerwire"
)

// for supported data types, see https://docs.aws.amazon.com/athena/latest/ug/data-types.html
var athenaWireTypes = map[string]peerwire.WireType{
	"boolean":   peerwire.WireBool,
	"tinyint":   peerwire.WireNumeric,
	"smallint":  peerwire.WireNumeric,
	"integer":   peerwire.WireNumeric,
	"int":       peerwire.WireNumeric,
	"bigint":    peerwire.WireNumeric,
	"decimal":   peerwire.WireNumeric,
	"double":    peerwire.WireFloat8,
	"float":     peerwire.WireFloat8,
	"real":      peerwire.WireFloat8,
	"varchar":   peerwire.WireText,
	"char":      peerwire.WireText,
	"string":    peerwire.WireText,
	"varbinary": peerwire.WireBytea,
	"timestamp": peerwire.WireTimestamp,
	"date":      peerwire.WireDate,
	"json":      peerwire.WireJSONB,
}

func athenaWireType(athenaType string) peerwire.WireType {
	if t, ok := athenaWireTypes[athenaType]; ok {
		return t
	}
	return peerwire.WireText
}

func castAthenaRowData(rowData types.Datum, athenaType string) (peerwire.Value, error) {
	if rowData.VarCharValue == nil {
		return peerwire.Null{}, nil
	}
	data := *rowData.VarCharValue
	if athenaType != "varchar" && data == "" {
		return peerwire.Null{}, nil
	}

	switch athenaType {
	case "boolean":
		v, err := strconv.ParseBool(data)
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return peerwire.Bool(v), nil
	case "tinyint", "smallint", "integer", "int", "bigint":
		v, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return peerwire.BigInt(v), nil
	case "decimal":
		return peerwire.Text(data), nil
	case "double", "float", "real":
		v, err := strconv.ParseFloat(data, 64)
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return peerwire.Float(v), nil
	case "varbinary":
		v, err := hex.DecodeString(strings.ReplaceAll(data, " ", ""))
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return peerwire.Binary(v), nil
	case "timestamp":
		v, err := time.Parse("2006-01-02 15:04:05", data)
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return peerwire.Timestamp(v), nil
	case "date":
		v, err := time.Parse("2006-01-02", data)
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return peerwire.Date(v), nil
	case "json":
		v, err := peerwire.ParseJSON(data)
		if err != nil {
			return nil, coercionError(athenaType, data, err)
		}
		return v, nil
	default:
		if _, known := athenaWireTypes[athenaType]; !known {
			peerwire.LogWarnf("athena data type '%s' not supported, defaulting to text: if this is intended consider doing conversion in SQL to be explicit", athenaType)
		}
		return peerwire.Text(data), nil
	}
}

func coercionError(athenaType, data string, err error) error {
	return peerwire.NewValueCoercionError(fmt.Sprintf("invalid athena %s value %q", athenaType, data), err)
}
