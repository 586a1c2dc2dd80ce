package peerwire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kent-id/peerwire/util"
)

// Value is one wire-level cell. The set of implementations is closed: Null, BigInt,
// Float, Text, Binary, Bool, Date, Time, Timestamp, TimestampWithTimeZone and JSON.
type Value interface {
	// Text returns the PostgreSQL text format encoding of the value, nil for NULL.
	Text() *string
	isValue()
}

type (
	Null                  struct{}
	BigInt                int64
	Float                 float64
	Text                  string
	Binary                []byte
	Bool                  bool
	Date                  time.Time
	Time                  time.Time
	Timestamp             time.Time
	TimestampWithTimeZone time.Time

	// JSON holds a decoded semi-structured document.
	JSON struct {
		Doc interface{}
	}
)

func (Null) isValue()                  {}
func (BigInt) isValue()                {}
func (Float) isValue()                 {}
func (Text) isValue()                  {}
func (Binary) isValue()                {}
func (Bool) isValue()                  {}
func (Date) isValue()                  {}
func (Time) isValue()                  {}
func (Timestamp) isValue()             {}
func (TimestampWithTimeZone) isValue() {}
func (JSON) isValue()                  {}

func (Null) Text() *string {
	return nil
}

func (v BigInt) Text() *string {
	return util.RefString(strconv.FormatInt(int64(v), 10))
}

func (v Float) Text() *string {
	return util.RefString(strconv.FormatFloat(float64(v), 'g', -1, 64))
}

func (v Text) Text() *string {
	return util.RefString(string(v))
}

func (v Binary) Text() *string {
	return util.RefString(`\x` + hex.EncodeToString(v))
}

func (v Bool) Text() *string {
	if v {
		return util.RefString("t")
	}
	return util.RefString("f")
}

func (v Date) Text() *string {
	return util.RefString(time.Time(v).Format("2006-01-02"))
}

func (v Time) Text() *string {
	return util.RefString(time.Time(v).Format("15:04:05.999999"))
}

func (v Timestamp) Text() *string {
	return util.RefString(time.Time(v).Format("2006-01-02 15:04:05.999999"))
}

func (v TimestampWithTimeZone) Text() *string {
	return util.RefString(time.Time(v).UTC().Format("2006-01-02 15:04:05.999999-07"))
}

// ParseJSON decodes one JSON document. Numbers are kept as json.Number so integers
// beyond float64 precision survive re-encoding.
func ParseJSON(data string) (JSON, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return JSON{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return JSON{}, fmt.Errorf("unexpected data after JSON document")
	}
	return JSON{Doc: doc}, nil
}

func (v JSON) Text() *string {
	b, err := json.Marshal(v.Doc)
	if err != nil {
		return util.RefString("null")
	}
	return util.RefString(string(b))
}
