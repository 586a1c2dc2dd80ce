package parser

import "github.com/xwb1989/sqlparser"

// Statement is one parsed statement. It is either plain SQL, carrying the AST from
// sqlparser, or one of the proxy's own peer and cursor statements that the SQL
// grammar does not know about.
type Statement interface {
	// String returns the statement text as submitted, without the trailing ';'.
	String() string
	isStatement()
}

// SQL is a statement understood by the SQL grammar.
type SQL struct {
	Text string
	AST  sqlparser.Statement
}

// CreatePeer registers a peer: CREATE PEER [IF NOT EXISTS] name FROM type WITH (k = 'v', ...).
type CreatePeer struct {
	Text        string
	Name        string
	PeerType    string
	Options     map[string]string
	IfNotExists bool
}

// DropPeer removes a peer: DROP PEER [IF EXISTS] name.
type DropPeer struct {
	Text     string
	Name     string
	IfExists bool
}

// DeclareCursor opens a cursor over a query: DECLARE name CURSOR FOR query.
type DeclareCursor struct {
	Text  string
	Name  string
	Query *SQL
}

// FetchCursor reads from a cursor: FETCH [direction] [FROM | IN] name. Direction is
// kept as written ("", "NEXT", "ALL", "10", ...).
type FetchCursor struct {
	Text      string
	Name      string
	Direction string
}

// CloseCursor closes one cursor or all of them: CLOSE name | CLOSE ALL.
type CloseCursor struct {
	Text string
	Name string
	All  bool
}

func (s *SQL) String() string           { return s.Text }
func (s *CreatePeer) String() string    { return s.Text }
func (s *DropPeer) String() string      { return s.Text }
func (s *DeclareCursor) String() string { return s.Text }
func (s *FetchCursor) String() string   { return s.Text }
func (s *CloseCursor) String() string   { return s.Text }

func (*SQL) isStatement()           {}
func (*CreatePeer) isStatement()    {}
func (*DropPeer) isStatement()      {}
func (*DeclareCursor) isStatement() {}
func (*FetchCursor) isStatement()   {}
func (*CloseCursor) isStatement()   {}

// IsRollback reports whether stmt is a transaction rollback.
func IsRollback(stmt Statement) bool {
	s, ok := stmt.(*SQL)
	if !ok {
		return false
	}
	_, ok = s.AST.(*sqlparser.Rollback)
	return ok
}
