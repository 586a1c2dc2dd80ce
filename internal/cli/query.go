package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/analyzer"
	"github.com/kent-id/peerwire/config"
	"github.com/kent-id/peerwire/parser"
	"github.com/kent-id/peerwire/sdk/athena"
	"github.com/kent-id/peerwire/sdk/snowflake"
	"github.com/kent-id/peerwire/types"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	Peer string
}

// streamOpener runs sql on peer and returns its results.
type streamOpener func(ctx context.Context, cfg *config.Config, peer *types.Peer, sql string) (peerwire.RecordStream, error)

var openPeerStream streamOpener = openStream

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query on a peer and print its rows",
		Long: `Classify a query, send it to the peer it references with the peer qualifier
removed, and stream the result rows.

--peer is required when the query references more than one peer.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Peer, "peer", "p", "", "peer to run the query on")

	return cmd
}

func runQuery(ctx context.Context, rootOpts *RootOptions, opts *QueryOptions, raw string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	catalog, closer, err := openCatalog(rootOpts.config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer closer.Close()

	parsed, err := peerwire.NewClassifier(catalog).Parse(ctx, raw)
	if err != nil {
		return formatter.Error("classification failed", err)
	}
	query, ok := parsed.Statement.(*peerwire.PeerQuery)
	if !ok {
		description, _ := peerwire.Summarize(parsed.Statement)
		return formatter.Error("not a peer query", fmt.Errorf("statement is %s, not a peer query", description))
	}

	peer, err := pickPeer(query.Assoc, opts.Peer)
	if err != nil {
		return formatter.Error("no peer to run on", err)
	}
	stmt, ok := query.Stmt.(*parser.SQL)
	if !ok {
		return formatter.Error("not a peer query", fmt.Errorf("unexpected statement %T", query.Stmt))
	}
	sql, err := analyzer.PeerLocalSQL(stmt, peer.Name)
	if err != nil {
		return formatter.Error("failed to render peer query", err)
	}
	peerwire.LogInfof("running query on peer %s (%s): %s", peer.Name, peer.Type, sql)

	stream, err := openPeerStream(ctx, rootOpts.config, peer, sql)
	if err != nil {
		return formatter.Error("query failed", err)
	}
	defer stream.Close()

	formatter.Header(stream.Schema())
	for {
		record, err := stream.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return formatter.Error("query failed", err)
		}
		if err := formatter.Record(record); err != nil {
			return err
		}
	}
}

// pickPeer selects the named peer from assoc, or its only peer when name is empty.
func pickPeer(assoc *analyzer.QueryAssociation, name string) (*types.Peer, error) {
	if assoc.IsCatalog() {
		return nil, fmt.Errorf("query does not reference any peer")
	}
	if name == "" {
		if len(assoc.Peers) > 1 {
			return nil, fmt.Errorf("query references peers %v, select one with --peer", assoc.PeerNames())
		}
		return assoc.Peers[0], nil
	}
	for _, p := range assoc.Peers {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("query does not reference peer %s", name)
}

func openStream(ctx context.Context, cfg *config.Config, peer *types.Peer, sql string) (peerwire.RecordStream, error) {
	switch peer.Type {
	case types.PeerTypeSnowflake:
		client, err := newSnowflakeClient(cfg.Snowflake, peer)
		if err != nil {
			return nil, err
		}
		stream, err := client.Query(ctx, sql)
		if err != nil {
			return nil, err
		}
		return stream, nil
	case types.PeerTypeAthena:
		client, err := newAthenaClient(ctx, cfg.Athena, peer)
		if err != nil {
			return nil, err
		}
		return client.Query(ctx, sql)
	default:
		return nil, &peerwire.Error{
			Kind:    peerwire.UnsupportedInput,
			Code:    peerwire.CodeFeatureNotSupported,
			Message: fmt.Sprintf("querying %s peers is not supported", peer.Type),
		}
	}
}

// option returns the peer option key, falling back to def.
func option(peer *types.Peer, key, def string) string {
	if v, ok := peer.Options[key]; ok && v != "" {
		return v
	}
	return def
}

func newSnowflakeClient(cfg config.SnowflakeConfig, peer *types.Peer) (*snowflake.Client, error) {
	account := option(peer, "account_id", cfg.Account)
	user := option(peer, "username", cfg.User)

	privateKey := []byte(option(peer, "private_key", ""))
	if len(privateKey) == 0 {
		if cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("peer %s has no private_key and snowflake.private_key_path is not set", peer.Name)
		}
		var err error
		// #nosec G304 -- path is from the config file, controlled by the operator
		privateKey, err = os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading snowflake private key: %w", err)
		}
	}

	auth, err := snowflake.NewKeyPairAuth(account, user, privateKey)
	if err != nil {
		return nil, err
	}
	return snowflake.New(snowflake.Config{
		AccountID: account,
		Endpoint:  option(peer, "endpoint", cfg.Endpoint),
		Warehouse: option(peer, "warehouse", cfg.Warehouse),
		Database:  option(peer, "database", cfg.Database),
		Schema:    option(peer, "schema", cfg.Schema),
		Role:      option(peer, "role", cfg.Role),
		Timeout:   cfg.Timeout,
	}, auth)
}

func newAthenaClient(ctx context.Context, cfg config.AthenaConfig, peer *types.Peer) (athena.AthenaClientV2, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(option(peer, "region", cfg.Region)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return athena.NewClientV2(
		awsConfig,
		option(peer, "workgroup", cfg.Workgroup),
		option(peer, "database", cfg.Database),
		option(peer, "catalog", cfg.Catalog),
		cfg.WaitInterval,
	), nil
}
