// Package athena runs queries on AWS Athena and exposes their results as a
// peerwire.RecordStream.
package athena

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/util"
)

const (
	maxAllowedPageSize = 1000 // max allowed by athena
)

// athenaAPI is the subset of *athena.Client used here.
type athenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type athenaClientV2 struct {
	api          athenaAPI
	workgroup    string
	catalog      string
	database     string
	waitInterval time.Duration
	maxPageSize  int32
}

// AthenaClientV2 is a client to AWS Athena producing peerwire records.
// Underlying AWS client from aws-sdk-go-v2 is used.
type AthenaClientV2 interface {
	Query(ctx context.Context, sqlQuery string) (peerwire.RecordStream, error)
}

// NewClientV2 constructs new AthenaClientV2 using specified aws-sdk-go-v2/aws/config, workgroup, database name, and catalog name in Athena
func NewClientV2(awsConfig aws.Config, workgroup, database, catalog string, waitInterval time.Duration) AthenaClientV2 {
	return newClientV2(athena.NewFromConfig(awsConfig), workgroup, database, catalog, waitInterval)
}

func newClientV2(api athenaAPI, workgroup, database, catalog string, waitInterval time.Duration) *athenaClientV2 {
	if waitInterval <= 0 {
		waitInterval = 1 * time.Second
	}
	peerwire.LogInfof("creating athena client with workgroup: %s, database: %s, catalog: %s, pageSize: %d", workgroup, database, catalog, maxAllowedPageSize)
	return &athenaClientV2{
		api:          api,
		workgroup:    workgroup,
		catalog:      catalog,
		database:     database,
		waitInterval: waitInterval,
		maxPageSize:  maxAllowedPageSize,
	}
}

// Query runs sqlQuery, waits for it to finish, and returns a stream over its results.
// The first page is read here to learn the schema; later pages are read on demand.
func (c *athenaClientV2) Query(ctx context.Context, sqlQuery string) (peerwire.RecordStream, error) {
	// 1. start query
	queryExecutionID, err := c.startQueryAndGetExecutionID(ctx, sqlQuery)
	if err != nil {
		return nil, peerwire.NewNetworkError("failed to start athena query", err)
	}

	// 2. get query execution info and wait until query finishes
	status, err := c.waitQueryAndGetStatus(ctx, queryExecutionID)
	if err != nil {
		return nil, peerwire.NewNetworkError("failed to get athena query status", err)
	}

	// 3. finally if query is successful, stream the query results output
	if status.State != types.QueryExecutionStateSucceeded {
		reason := util.SafeString(status.StateChangeReason)
		err = fmt.Errorf("query execution failed with status: %s, reason: %s", status.State, reason)
		return nil, peerwire.NewNetworkError("athena query did not succeed", err)
	}

	stream := &pagedStream{
		api: c.api,
		input: athena.GetQueryResultsInput{
			QueryExecutionId: queryExecutionID,
			MaxResults:       util.RefInt32(c.maxPageSize),
		},
	}
	stream.closed, stream.close = context.WithCancel(context.Background())
	if err := stream.fetchPage(ctx); err != nil {
		return nil, err
	}
	return stream, nil
}

// startQueryAndGetExecutionID starts query execution and get the execution id to identify the running query in Athena.
func (c *athenaClientV2) startQueryAndGetExecutionID(ctx context.Context, sqlQuery string) (*string, error) {
	startQueryExecContext := types.QueryExecutionContext{
		Database: util.RefString(c.database),
		Catalog:  util.RefString(c.catalog),
	}

	startQueryExecInput := athena.StartQueryExecutionInput{
		QueryExecutionContext: &startQueryExecContext,
		WorkGroup:             util.RefString(c.workgroup),
		QueryString:           util.RefString(sqlQuery),
	}

	startQueryExecOutput, err := c.api.StartQueryExecution(ctx, &startQueryExecInput)
	if err != nil {
		return nil, err
	}
	peerwire.LogInfof("started query with ExecutionID: %s", util.SafeString(startQueryExecOutput.QueryExecutionId))
	return startQueryExecOutput.QueryExecutionId, nil
}

// waitQueryAndGetStatus waits until query execution finishes and return QueryExecutionStatus.
func (c *athenaClientV2) waitQueryAndGetStatus(ctx context.Context, queryExecutionID *string) (*types.QueryExecutionStatus, error) {
	queryExecInput := athena.GetQueryExecutionInput{
		QueryExecutionId: queryExecutionID,
	}

	var status *types.QueryExecutionStatus
	for {
		queryExecOutput, err := c.api.GetQueryExecution(ctx, &queryExecInput)
		if err != nil {
			return nil, err
		}
		status = queryExecOutput.QueryExecution.Status
		if status.State != types.QueryExecutionStateRunning && status.State != types.QueryExecutionStateQueued {
			peerwire.LogInfof("stopped query execution with state: %s", status.State)
			break
		}
		peerwire.LogInfof("still awaiting query results with state: %s, waitInterval: %s", status.State, c.waitInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.waitInterval):
		}
	}
	return status, nil
}
