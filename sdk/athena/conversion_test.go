package athena

import (
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/util"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const (
	athenaTypeBool      = "boolean"
	athenaTypeString    = "varchar"
	athenaTypeInt       = "integer"
	athenaTypeBigInt    = "bigint"
	athenaTypeDouble    = "double"
	athenaTypeDecimal   = "decimal"
	athenaTypeBinary    = "varbinary"
	athenaTypeArray     = "array"
	athenaTypeJSON      = "json"
	athenaTypeTimestamp = "timestamp"
	athenaTypeDate      = "date"
)

var _ = Describe("Conversion", func() {
	datum := func(s string) types.Datum {
		return types.Datum{VarCharValue: util.RefString(s)}
	}

	Context("Null", func() {
		It("should return Null for a missing value of any type", func() {
			for _, athenaType := range []string{athenaTypeBool, athenaTypeString, athenaTypeInt, athenaTypeDate, athenaTypeJSON} {
				result, err := castAthenaRowData(types.Datum{}, athenaType)
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal(peerwire.Null{}))
			}
		})
		It("should return Null for an empty non-varchar value", func() {
			result, err := castAthenaRowData(datum(""), athenaTypeInt)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Null{}))
		})
		It("should keep an empty varchar as text", func() {
			result, err := castAthenaRowData(datum(""), athenaTypeString)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Text("")))
		})
	})

	Context("Boolean", func() {
		It("should return true on TRUE bool value", func() {
			result, err := castAthenaRowData(datum("true"), athenaTypeBool)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Bool(true)))
		})
		It("should return false on FALSE bool value", func() {
			result, err := castAthenaRowData(datum("false"), athenaTypeBool)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Bool(false)))
		})
		It("should return error on invalid bool value", func() {
			_, err := castAthenaRowData(datum("some-invalid-value"), athenaTypeBool)
			Expect(err).To(HaveOccurred())
			Expect(peerwire.IsKind(err, peerwire.ValueCoercionError)).To(BeTrue())
		})
	})

	Context("String", func() {
		It("should return value as is", func() {
			result, err := castAthenaRowData(datum("test data"), athenaTypeString)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Text("test data")))
		})
	})

	Context("Integer", func() {
		It("should return value if valid", func() {
			result, err := castAthenaRowData(datum("123"), athenaTypeInt)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.BigInt(123)))
		})
		It("should return big int value if valid", func() {
			result, err := castAthenaRowData(datum("9223372036854775807"), athenaTypeBigInt)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.BigInt(9223372036854775807)))
		})
		It("should return error if invalid", func() {
			_, err := castAthenaRowData(datum("1.5"), athenaTypeInt)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Double and decimal", func() {
		It("should parse double", func() {
			result, err := castAthenaRowData(datum("1.25"), athenaTypeDouble)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Float(1.25)))
		})
		It("should keep decimal as text", func() {
			result, err := castAthenaRowData(datum("12345678901234567890.12"), athenaTypeDecimal)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Text("12345678901234567890.12")))
		})
	})

	Context("Varbinary", func() {
		It("should decode space separated hex", func() {
			result, err := castAthenaRowData(datum("48 65 6c 6c 6f"), athenaTypeBinary)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Binary("Hello")))
		})
		It("should return error on invalid hex", func() {
			_, err := castAthenaRowData(datum("zz"), athenaTypeBinary)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Timestamp and date", func() {
		It("should parse timestamp", func() {
			result, err := castAthenaRowData(datum("2021-03-04 05:06:07"), athenaTypeTimestamp)
			Expect(err).ToNot(HaveOccurred())
			Expect(time.Time(result.(peerwire.Timestamp))).To(Equal(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)))
		})
		It("should return error on invalid timestamp", func() {
			_, err := castAthenaRowData(datum("2021-03-04T05:06:07Z"), athenaTypeTimestamp)
			Expect(err).To(HaveOccurred())
		})
		It("should parse date", func() {
			result, err := castAthenaRowData(datum("2021-03-04"), athenaTypeDate)
			Expect(err).ToNot(HaveOccurred())
			Expect(time.Time(result.(peerwire.Date))).To(Equal(time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)))
		})
	})

	Context("JSON", func() {
		It("should decode document", func() {
			result, err := castAthenaRowData(datum(`{"a":1}`), athenaTypeJSON)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.JSON{Doc: map[string]interface{}{"a": json.Number("1")}}))
		})
	})

	Context("Unsupported types", func() {
		It("should fall back to text for array", func() {
			result, err := castAthenaRowData(datum("[1, 2]"), athenaTypeArray)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(peerwire.Text("[1, 2]")))
		})
		It("should map unknown types to the text wire type", func() {
			Expect(athenaWireType(athenaTypeArray)).To(Equal(peerwire.WireText))
			Expect(athenaWireType(athenaTypeInt)).To(Equal(peerwire.WireNumeric))
		})
	})
})
