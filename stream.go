package peerwire

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kent-id/peerwire/types"
)

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = errors.New("peerwire: record stream closed")

// RecordStream is a pull-based sequence of Records. Next returns io.EOF once the
// sequence is exhausted.
type RecordStream interface {
	Schema() *Schema
	Next(ctx context.Context) (*Record, error)
	Close() error
}

// PartitionFetcher fetches the rows of one partition of a statement's result.
type PartitionFetcher interface {
	FetchPartition(ctx context.Context, statementHandle string, partition int) ([][]*string, error)
}

// PartitionFetcherFunc adapts a function to PartitionFetcher.
type PartitionFetcherFunc func(ctx context.Context, statementHandle string, partition int) ([][]*string, error)

func (f PartitionFetcherFunc) FetchPartition(ctx context.Context, statementHandle string, partition int) ([][]*string, error) {
	return f(ctx, statementHandle, partition)
}

// PartitionedStream presents a multi-partition remote result as one ordered sequence of
// Records. It owns its ResultSet: the buffered rows are replaced wholesale on each fetch,
// and a fetch is only issued when Next finds the buffer drained.
type PartitionedStream struct {
	resultSet *types.ResultSet
	fetcher   PartitionFetcher
	schema    *Schema
	domains   []types.DomainType

	rowIndex   int
	partition  int
	partitions int

	err    error
	closed context.Context
	close  context.CancelFunc
}

// NewPartitionedStream takes ownership of resultSet, whose Data must hold partition 0.
// The schema is computed here, once, from the result set metadata.
func NewPartitionedStream(resultSet *types.ResultSet, fetcher PartitionFetcher) (*PartitionedStream, error) {
	if resultSet == nil {
		return nil, newInternalError("nil result set", nil)
	}
	schema, domains, err := newResultSetSchema(&resultSet.ResultSetMetaData)
	if err != nil {
		return nil, newInternalError("invalid result set metadata", err)
	}

	partitions := len(resultSet.ResultSetMetaData.PartitionInfo)
	if partitions == 0 {
		// no partition info means the inline rows are the whole result
		partitions = 1
	}
	if partitions > 1 && fetcher == nil {
		return nil, newInternalError(fmt.Sprintf("result declares %d partitions but no fetcher is configured", partitions), nil)
	}

	closed, cancel := context.WithCancel(context.Background())
	LogDebugf("opened stream for statement %s with %d partitions, %d columns", resultSet.StatementHandle, partitions, schema.Len())
	return &PartitionedStream{
		resultSet:  resultSet,
		fetcher:    fetcher,
		schema:     schema,
		domains:    domains,
		partitions: partitions,
		closed:     closed,
		close:      cancel,
	}, nil
}

// Schema returns the stream's schema. It never changes for the stream's lifetime.
func (s *PartitionedStream) Schema() *Schema {
	return s.schema
}

// Next returns the next Record, io.EOF when every declared partition has been consumed,
// or the error that terminated the stream.
func (s *PartitionedStream) Next(ctx context.Context) (*Record, error) {
	if s.closed.Err() != nil {
		return nil, ErrStreamClosed
	}
	if s.err != nil {
		return nil, s.err
	}

	for s.rowIndex >= len(s.resultSet.Data) {
		if s.partition+1 >= s.partitions {
			return nil, io.EOF
		}
		if err := s.advancePartition(ctx); err != nil {
			return nil, s.fail(err)
		}
	}

	record, err := convertRow(s.schema, s.domains, s.resultSet.Data[s.rowIndex])
	if err != nil {
		return nil, s.fail(err)
	}
	s.rowIndex++
	return record, nil
}

// fail terminates the stream with err.
func (s *PartitionedStream) fail(err error) error {
	s.err = err
	if err != ErrStreamClosed {
		LogErrorf("stream for statement %s ended at partition %d: %v", s.resultSet.StatementHandle, s.partition, err)
	}
	return err
}

// advancePartition fetches the next partition and replaces the buffered rows.
func (s *PartitionedStream) advancePartition(ctx context.Context) error {
	s.partition++
	s.rowIndex = 0
	s.resultSet.Data = nil

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.closed, cancel)
	defer stop()

	LogDebugf("fetching partition %d/%d for statement %s", s.partition, s.partitions-1, s.resultSet.StatementHandle)
	rows, err := s.fetcher.FetchPartition(fetchCtx, s.resultSet.StatementHandle, s.partition)
	if err != nil {
		if s.closed.Err() != nil {
			return ErrStreamClosed
		}
		var perr *Error
		if errors.As(err, &perr) {
			return err
		}
		return NewNetworkError(fmt.Sprintf("failed to fetch partition %d of statement %s", s.partition, s.resultSet.StatementHandle), err)
	}
	s.resultSet.Data = rows
	return nil
}

// Close abandons the stream. No further partitions are fetched and a fetch in flight
// is cancelled.
func (s *PartitionedStream) Close() error {
	s.close()
	return nil
}

// IntoChannel drains stream into records, sending at most one error to errs, which
// should be buffered. Both channels are closed on return and the stream is closed.
func IntoChannel(ctx context.Context, stream RecordStream, records chan<- *Record, errs chan<- error) {
	defer func() {
		_ = stream.Close()
		close(records)
		close(errs)
	}()

	for {
		record, err := stream.Next(ctx)
		if err == io.EOF {
			LogDebugf("finished streaming records")
			return
		}
		if err != nil {
			errs <- err
			return
		}

		select {
		case records <- record:
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		}
	}
}

var _ RecordStream = (*PartitionedStream)(nil)
