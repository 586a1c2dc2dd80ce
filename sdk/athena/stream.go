package athena

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/util"
)

// pagedStream reads the results of a finished query one page at a time, following
// NextToken. Only one page is buffered at a time.
type pagedStream struct {
	api   athenaAPI
	input athena.GetQueryResultsInput

	schema      *peerwire.Schema
	columnTypes []string

	rows     []types.Row
	rowIndex int
	page     uint
	done     bool

	err    error
	closed context.Context
	close  context.CancelFunc
}

func (s *pagedStream) Schema() *peerwire.Schema {
	return s.schema
}

func (s *pagedStream) Next(ctx context.Context) (*peerwire.Record, error) {
	if s.closed.Err() != nil {
		return nil, peerwire.ErrStreamClosed
	}
	if s.err != nil {
		return nil, s.err
	}

	for s.rowIndex >= len(s.rows) {
		if s.done {
			return nil, io.EOF
		}
		if err := s.fetchPage(ctx); err != nil {
			return nil, s.fail(err)
		}
	}

	record, err := s.convertRow(s.rows[s.rowIndex])
	if err != nil {
		return nil, s.fail(err)
	}
	s.rowIndex++
	return record, nil
}

// fail terminates the stream with err.
func (s *pagedStream) fail(err error) error {
	s.err = err
	if err != peerwire.ErrStreamClosed {
		peerwire.LogErrorf("athena results of %s ended at page %d: %v", util.SafeString(s.input.QueryExecutionId), s.page, err)
	}
	return err
}

func (s *pagedStream) Close() error {
	s.close()
	return nil
}

// fetchPage replaces the buffered rows with the next page. The first page also
// carries the column metadata and a header row, which is skipped.
func (s *pagedStream) fetchPage(ctx context.Context) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.closed, cancel)
	defer stop()

	s.page++
	s.rowIndex = 0
	s.rows = nil
	peerwire.LogInfof("fetching page %d results from athena using nextToken: %s", s.page, util.SafeString(s.input.NextToken))
	output, err := s.api.GetQueryResults(fetchCtx, &s.input)
	if err != nil {
		if s.closed.Err() != nil {
			return peerwire.ErrStreamClosed
		}
		return peerwire.NewNetworkError(fmt.Sprintf("failed to fetch athena results page %d", s.page), err)
	}
	if output.ResultSet == nil {
		return peerwire.NewNetworkError(fmt.Sprintf("athena results page %d has no result set", s.page), nil)
	}

	rows := output.ResultSet.Rows
	if s.page == 1 {
		if err := s.readSchema(output.ResultSet.ResultSetMetadata); err != nil {
			return err
		}
		// skip header row if first page results
		if len(rows) > 0 {
			rows = rows[1:]
		}
	}
	s.rows = rows

	s.input.NextToken = output.NextToken
	if output.NextToken == nil {
		peerwire.LogInfof("finished fetching results from athena")
		s.done = true
	}
	return nil
}

func (s *pagedStream) readSchema(metadata *types.ResultSetMetadata) error {
	if metadata == nil || len(metadata.ColumnInfo) == 0 {
		err := fmt.Errorf("at least one column be returned by the data set")
		return peerwire.NewNetworkError("invalid athena result metadata", err)
	}

	fields := make([]peerwire.Field, 0, len(metadata.ColumnInfo))
	columnTypes := make([]string, 0, len(metadata.ColumnInfo))
	for index, column := range metadata.ColumnInfo {
		name := util.SafeString(column.Name)
		athenaType := util.SafeString(column.Type)
		if name == "" {
			err := fmt.Errorf("column name from athena result set is empty, index: %d", index)
			return peerwire.NewNetworkError("invalid athena result metadata", err)
		}
		fields = append(fields, peerwire.Field{Name: name, Type: athenaWireType(athenaType), Format: peerwire.FieldFormatText})
		columnTypes = append(columnTypes, athenaType)
	}
	s.schema = peerwire.NewSchemaFromFields(fields)
	s.columnTypes = columnTypes
	return nil
}

func (s *pagedStream) convertRow(row types.Row) (*peerwire.Record, error) {
	if len(row.Data) != len(s.columnTypes) {
		err := fmt.Errorf("row has %d cells, schema has %d columns", len(row.Data), len(s.columnTypes))
		return nil, peerwire.NewNetworkError("malformed athena row", err)
	}
	values := make([]peerwire.Value, len(row.Data))
	for index, datum := range row.Data {
		v, err := castAthenaRowData(datum, s.columnTypes[index])
		if err != nil {
			return nil, err
		}
		values[index] = v
	}
	return &peerwire.Record{Schema: s.schema, Values: values}, nil
}

var _ peerwire.RecordStream = (*pagedStream)(nil)
