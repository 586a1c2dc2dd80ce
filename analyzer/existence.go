package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/kent-id/peerwire/parser"
	"github.com/kent-id/peerwire/types"
)

// QueryAssociation lists the peers a query reads from, sorted by name. An empty
// association means the statement only touches the proxy's own catalog.
type QueryAssociation struct {
	Peers []*types.Peer
}

// IsCatalog reports whether the statement references no peer.
func (a *QueryAssociation) IsCatalog() bool {
	return len(a.Peers) == 0
}

// PeerNames returns the associated peer names in order.
func (a *QueryAssociation) PeerNames() []string {
	names := make([]string, len(a.Peers))
	for i, p := range a.Peers {
		names[i] = p.Name
	}
	return names
}

// MissingPeersError names the referenced peers absent from the catalog snapshot.
type MissingPeersError struct {
	Names []string
}

func (e *MissingPeersError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("peer %s does not exist", e.Names[0])
	}
	return fmt.Sprintf("peers %s do not exist", strings.Join(e.Names, ", "))
}

// PeerExistenceAnalyzer checks every peer a statement references against a catalog
// snapshot. A table reference qualified as peer.table names a peer.
type PeerExistenceAnalyzer struct {
	peers map[string]*types.Peer
}

func NewPeerExistenceAnalyzer(peers map[string]*types.Peer) *PeerExistenceAnalyzer {
	return &PeerExistenceAnalyzer{peers: peers}
}

func (a *PeerExistenceAnalyzer) Analyze(stmt parser.Statement) (*QueryAssociation, error) {
	names, err := referencedPeers(stmt)
	if err != nil {
		return nil, err
	}

	assoc := &QueryAssociation{}
	associated := make(map[string]bool)
	var missing []string
	for _, name := range names {
		peer := a.lookup(name)
		if peer == nil {
			missing = append(missing, name)
			continue
		}
		if !associated[peer.Name] {
			associated[peer.Name] = true
			assoc.Peers = append(assoc.Peers, peer)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingPeersError{Names: missing}
	}
	sort.Slice(assoc.Peers, func(i, j int) bool { return assoc.Peers[i].Name < assoc.Peers[j].Name })
	return assoc, nil
}

// lookup matches the name as written, then case-folded as an unquoted identifier would be.
func (a *PeerExistenceAnalyzer) lookup(name string) *types.Peer {
	if peer, ok := a.peers[name]; ok {
		return peer
	}
	if peer, ok := a.peers[strings.ToLower(name)]; ok {
		return peer
	}
	return nil
}

// catalogSchemas are served by the proxy itself and never name a peer.
var catalogSchemas = map[string]bool{
	"information_schema": true,
	"pg_catalog":         true,
}

// referencedPeers returns the sorted, de-duplicated peer names stmt references.
func referencedPeers(stmt parser.Statement) ([]string, error) {
	var ast sqlparser.SQLNode
	switch s := stmt.(type) {
	case *parser.SQL:
		ast = s.AST
	case *parser.DeclareCursor:
		ast = s.Query.AST
	default:
		return nil, nil
	}

	seen := make(map[string]bool)
	err := sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if tableName, ok := node.(sqlparser.TableName); ok && !tableName.Qualifier.IsEmpty() {
			qualifier := tableName.Qualifier.String()
			if !catalogSchemas[strings.ToLower(qualifier)] {
				seen[qualifier] = true
			}
		}
		return true, nil
	}, ast)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
