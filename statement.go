package peerwire

import (
	"fmt"

	"github.com/kent-id/peerwire/analyzer"
	"github.com/kent-id/peerwire/parser"
)

// Statement is the routing decision for one submitted statement. The variants are
// *PeerDDL, *PeerQuery, *PeerCursor, *Rollback and *Empty; consumers switch over all
// of them and treat anything else as a bug.
type Statement interface {
	isStatement()
}

// PeerDDL manages a peer.
type PeerDDL struct {
	Stmt parser.Statement
	DDL  *analyzer.PeerDDL
}

// PeerQuery is routed to the peers in Assoc, or to the catalog when Assoc is empty.
type PeerQuery struct {
	Stmt  parser.Statement
	Assoc *analyzer.QueryAssociation
}

// PeerCursor is a cursor lifecycle operation.
type PeerCursor struct {
	Stmt   parser.Statement
	Cursor *analyzer.CursorEvent
}

// Rollback rolls back the session's transaction.
type Rollback struct {
	Stmt parser.Statement
}

// Empty is a submission with no statements.
type Empty struct{}

func (*PeerDDL) isStatement()    {}
func (*PeerQuery) isStatement()  {}
func (*PeerCursor) isStatement() {}
func (*Rollback) isStatement()   {}
func (*Empty) isStatement()      {}

// ParsedStatement is a classified statement along with the text it came from.
type ParsedStatement struct {
	Statement Statement
	Query     string
}

// Summarize returns a short, log-friendly summary of stmt.
func Summarize(stmt Statement) (string, error) {
	switch s := stmt.(type) {
	case *PeerDDL:
		return fmt.Sprintf("peer ddl: %s %s", s.DDL.Kind, s.DDL.Name), nil
	case *PeerQuery:
		if s.Assoc.IsCatalog() {
			return "peer query: catalog", nil
		}
		return fmt.Sprintf("peer query: %v", s.Assoc.PeerNames()), nil
	case *PeerCursor:
		return fmt.Sprintf("peer cursor: %s", describeCursor(s.Cursor)), nil
	case *Rollback:
		return "rollback", nil
	case *Empty:
		return "empty", nil
	default:
		return "", newInternalError(fmt.Sprintf("unknown statement variant %T", stmt), nil)
	}
}

func describeCursor(c *analyzer.CursorEvent) string {
	switch c.Kind {
	case analyzer.DeclareCursor:
		return "declare " + c.Name
	case analyzer.FetchCursor:
		if c.Count == analyzer.FetchAll {
			return fmt.Sprintf("fetch all from %s", c.Name)
		}
		return fmt.Sprintf("fetch %d from %s", c.Count, c.Name)
	case analyzer.CloseCursor:
		return "close " + c.Name
	case analyzer.CloseAllCursors:
		return "close all"
	default:
		return fmt.Sprintf("unknown cursor event %d", c.Kind)
	}
}
