package analyzer

import (
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/kent-id/peerwire/parser"
)

// PeerLocalSQL renders stmt with the peer qualifier removed from every table reference
// to peer, producing text the peer itself can execute. stmt is not modified, and its
// text is returned as written when nothing references peer.
func PeerLocalSQL(stmt *parser.SQL, peer string) (string, error) {
	ast, err := sqlparser.Parse(stmt.Text)
	if err != nil {
		return "", err
	}

	isPeer := func(t sqlparser.TableName) bool {
		q := t.Qualifier.String()
		return q != "" && (q == peer || strings.ToLower(q) == peer)
	}
	rewritten := false
	local := func(t sqlparser.TableName) sqlparser.TableName {
		if isPeer(t) {
			rewritten = true
			return sqlparser.TableName{Name: t.Name}
		}
		return t
	}

	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			if t, ok := n.Expr.(sqlparser.TableName); ok {
				n.Expr = local(t)
			}
		case *sqlparser.ColName:
			n.Qualifier = local(n.Qualifier)
		case *sqlparser.Insert:
			n.Table = local(n.Table)
		case sqlparser.TableNames:
			for i := range n {
				n[i] = local(n[i])
			}
		}
		return true, nil
	}, ast)
	if err != nil {
		return "", err
	}
	if !rewritten {
		return stmt.Text, nil
	}

	buf := sqlparser.NewTrackedBuffer(ansiIdentifiers)
	buf.Myprintf("%v", ast)
	return buf.String(), nil
}

// ansiIdentifiers formats nodes as sqlparser does, except that identifiers needing
// quotes get ANSI double quotes instead of backticks.
func ansiIdentifiers(buf *sqlparser.TrackedBuffer, node sqlparser.SQLNode) {
	var name string
	switch n := node.(type) {
	case sqlparser.ColIdent:
		name = n.String()
	case sqlparser.TableIdent:
		name = n.String()
	default:
		node.Format(buf)
		return
	}

	plain := sqlparser.NewTrackedBuffer(nil)
	node.Format(plain)
	if !strings.HasPrefix(plain.String(), "`") {
		buf.WriteString(plain.String())
		return
	}
	buf.WriteString(`"` + strings.ReplaceAll(name, `"`, `""`) + `"`)
}
