package peerwire

import (
	"context"
	"fmt"

	"github.com/kent-id/peerwire/analyzer"
	"github.com/kent-id/peerwire/parser"
	"github.com/kent-id/peerwire/types"
)

type DDLAnalyzer interface {
	Analyze(stmt parser.Statement) (*analyzer.PeerDDL, error)
}

type CursorAnalyzer interface {
	Analyze(stmt parser.Statement) (*analyzer.CursorEvent, error)
}

type ExistenceAnalyzer interface {
	Analyze(stmt parser.Statement) (*analyzer.QueryAssociation, error)
}

// ExistenceAnalyzerFactory builds an ExistenceAnalyzer over one catalog snapshot.
type ExistenceAnalyzerFactory func(peers map[string]*types.Peer) ExistenceAnalyzer

// Classifier routes each submitted statement to one execution path.
type Classifier struct {
	catalog   Catalog
	parse     func(raw string) ([]parser.Statement, error)
	ddl       DDLAnalyzer
	cursor    CursorAnalyzer
	existence ExistenceAnalyzerFactory
}

type ClassifierOption func(*Classifier)

func WithParser(parse func(raw string) ([]parser.Statement, error)) ClassifierOption {
	return func(c *Classifier) { c.parse = parse }
}

func WithDDLAnalyzer(a DDLAnalyzer) ClassifierOption {
	return func(c *Classifier) { c.ddl = a }
}

func WithCursorAnalyzer(a CursorAnalyzer) ClassifierOption {
	return func(c *Classifier) { c.cursor = a }
}

func WithExistenceAnalyzer(f ExistenceAnalyzerFactory) ClassifierOption {
	return func(c *Classifier) { c.existence = f }
}

// NewClassifier creates a Classifier reading peers from catalog. The analyzers
// default to the ones in package analyzer.
func NewClassifier(catalog Catalog, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		catalog: catalog,
		parse:   parser.Parse,
		ddl:     analyzer.PeerDDLAnalyzer{},
		cursor:  analyzer.PeerCursorAnalyzer{},
		existence: func(peers map[string]*types.Peer) ExistenceAnalyzer {
			return analyzer.NewPeerExistenceAnalyzer(peers)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse parses raw and classifies the statement it holds. Zero statements is Empty,
// more than one is rejected, and a ROLLBACK is classified without reading the catalog.
func (c *Classifier) Parse(ctx context.Context, raw string) (*ParsedStatement, error) {
	stmts, err := c.parse(raw)
	if err != nil {
		return nil, &Error{Kind: UnsupportedInput, Code: CodeSyntaxError, Message: "could not parse statement", Err: err}
	}

	switch {
	case len(stmts) == 0:
		return &ParsedStatement{Statement: &Empty{}, Query: raw}, nil
	case len(stmts) > 1:
		return nil, newUnsupportedInputError(fmt.Sprintf("unsupported sql: %s, statements: %d", raw, len(stmts)))
	}

	stmt := stmts[0]
	if parser.IsRollback(stmt) {
		return &ParsedStatement{Statement: &Rollback{Stmt: stmt}, Query: raw}, nil
	}

	peers, err := c.catalog.GetPeers(ctx)
	if err != nil {
		return nil, newInternalError("failed to read peers from catalog", err)
	}

	classified, err := c.Classify(peers, stmt)
	if err != nil {
		return nil, err
	}
	LogDebugf("classified %q against %d peers", stmt.String(), len(peers))
	return &ParsedStatement{Statement: classified, Query: raw}, nil
}

// Classify routes stmt using the peers snapshot. The first analyzer that matches wins:
// peer DDL, then cursor operations, then peer existence for everything else.
func (c *Classifier) Classify(peers map[string]*types.Peer, stmt parser.Statement) (Statement, error) {
	ddl, err := c.ddl.Analyze(stmt)
	if err != nil {
		return nil, newAnalysisError(CodeInternalError, "invalid peer ddl", err)
	}
	if ddl != nil {
		return &PeerDDL{Stmt: stmt, DDL: ddl}, nil
	}

	// a cursor statement the analyzer rejects is routed as a plain query
	cursor, err := c.cursor.Analyze(stmt)
	if err != nil {
		LogDebugf("cursor analysis of %q failed, treating as no match: %v", stmt.String(), err)
	} else if cursor != nil {
		return &PeerCursor{Stmt: stmt, Cursor: cursor}, nil
	}

	assoc, err := c.existence(peers).Analyze(stmt)
	if err != nil {
		return nil, newAnalysisError(CodeFeatureNotSupported, "statement cannot be routed", err)
	}
	return &PeerQuery{Stmt: stmt, Assoc: assoc}, nil
}
