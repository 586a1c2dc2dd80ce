package parser

import (
	"github.com/xwb1989/sqlparser"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parser", func() {
	parseOneStatement := func(raw string) Statement {
		stmts, err := Parse(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(stmts).To(HaveLen(1))
		return stmts[0]
	}

	Context("splitting", func() {
		It("should return no statements for blank or comment only input", func() {
			for _, raw := range []string{"", "   ", ";", " ; ; ", "-- nothing\n", "/* a; b */ ;"} {
				stmts, err := Parse(raw)
				Expect(err).ToNot(HaveOccurred())
				Expect(stmts).To(BeEmpty(), raw)
			}
		})

		It("should split on top level semicolons only", func() {
			stmts, err := Parse("SELECT 'a;b' FROM t; SELECT 1 /* ; */; -- ;\n")
			Expect(err).ToNot(HaveOccurred())
			Expect(stmts).To(HaveLen(2))
			Expect(stmts[0].String()).To(Equal("SELECT 'a;b' FROM t"))
			Expect(stmts[1].String()).To(Equal("SELECT 1 /* ; */"))
		})

		It("should handle doubled quotes inside literals", func() {
			Expect(splitStatements(`SELECT 'it''s; fine'; SELECT 2`)).To(Equal([]string{`SELECT 'it''s; fine'`, "SELECT 2"}))
		})
	})

	Context("SQL", func() {
		It("should carry the AST", func() {
			stmt := parseOneStatement("SELECT id FROM sf.orders")
			sql, ok := stmt.(*SQL)
			Expect(ok).To(BeTrue())
			_, isSelect := sql.AST.(*sqlparser.Select)
			Expect(isSelect).To(BeTrue())
		})

		It("should recognize rollback", func() {
			Expect(IsRollback(parseOneStatement("ROLLBACK"))).To(BeTrue())
			Expect(IsRollback(parseOneStatement("SELECT 1"))).To(BeFalse())
			Expect(IsRollback(parseOneStatement("DROP PEER p"))).To(BeFalse())
		})

		It("should return a syntax error", func() {
			_, err := Parse("SELEC nothing")
			Expect(err).To(HaveOccurred())
			_, ok := err.(*Error)
			Expect(ok).To(BeTrue())
		})
	})

	Context("peer statements", func() {
		It("should parse CREATE PEER with options", func() {
			stmt := parseOneStatement(`CREATE PEER IF NOT EXISTS "My Peer" FROM SNOWFLAKE WITH (account_id = 'xy12345', Warehouse = 'WH', private_key = 'a,b=c')`)
			Expect(stmt).To(Equal(&CreatePeer{
				Text:        `CREATE PEER IF NOT EXISTS "My Peer" FROM SNOWFLAKE WITH (account_id = 'xy12345', Warehouse = 'WH', private_key = 'a,b=c')`,
				Name:        "My Peer",
				PeerType:    "snowflake",
				Options:     map[string]string{"account_id": "xy12345", "warehouse": "WH", "private_key": "a,b=c"},
				IfNotExists: true,
			}))
		})

		It("should parse CREATE PEER without options", func() {
			stmt := parseOneStatement("create peer p from athena")
			Expect(stmt.(*CreatePeer).Options).To(BeEmpty())
		})

		It("should reject duplicate options", func() {
			_, err := Parse("CREATE PEER p FROM athena WITH (region = 'a', REGION = 'b')")
			Expect(err).To(MatchError(ContainSubstring("duplicate option")))
		})

		It("should reject malformed options", func() {
			_, err := Parse("CREATE PEER p FROM athena WITH (region)")
			Expect(err).To(HaveOccurred())
		})

		It("should fold unquoted peer names to lower case", func() {
			Expect(parseOneStatement("CREATE PEER MyPeer FROM athena").(*CreatePeer).Name).To(Equal("mypeer"))
			Expect(parseOneStatement(`CREATE PEER "MyPeer" FROM athena`).(*CreatePeer).Name).To(Equal("MyPeer"))
			Expect(parseOneStatement("DROP PEER MyPeer").(*DropPeer).Name).To(Equal("mypeer"))
		})

		It("should parse DROP PEER", func() {
			Expect(parseOneStatement("DROP PEER IF EXISTS p;")).To(Equal(&DropPeer{Text: "DROP PEER IF EXISTS p", Name: "p", IfExists: true}))
		})
	})

	Context("cursor statements", func() {
		It("should parse DECLARE with its query", func() {
			stmt := parseOneStatement("DECLARE c CURSOR FOR SELECT * FROM sf.t")
			declare, ok := stmt.(*DeclareCursor)
			Expect(ok).To(BeTrue())
			Expect(declare.Name).To(Equal("c"))
			Expect(declare.Query.Text).To(Equal("SELECT * FROM sf.t"))
		})

		It("should parse FETCH in its forms", func() {
			Expect(parseOneStatement("FETCH c").(*FetchCursor).Direction).To(Equal(""))
			Expect(parseOneStatement("FETCH NEXT FROM c").(*FetchCursor).Direction).To(Equal("NEXT"))
			Expect(parseOneStatement("fetch all in c").(*FetchCursor).Direction).To(Equal("ALL"))
			Expect(parseOneStatement("FETCH 10 FROM c").(*FetchCursor).Direction).To(Equal("10"))
			Expect(parseOneStatement("FETCH forward  5 FROM c").(*FetchCursor)).To(Equal(&FetchCursor{Text: "FETCH forward  5 FROM c", Name: "c", Direction: "FORWARD 5"}))
		})

		It("should fold unquoted cursor names to lower case", func() {
			Expect(parseOneStatement("DECLARE MyCursor CURSOR FOR SELECT 1").(*DeclareCursor).Name).To(Equal("mycursor"))
			Expect(parseOneStatement("FETCH 2 FROM MyCursor").(*FetchCursor).Name).To(Equal("mycursor"))
			Expect(parseOneStatement(`CLOSE "MyCursor"`).(*CloseCursor).Name).To(Equal("MyCursor"))
		})

		It("should parse CLOSE", func() {
			Expect(parseOneStatement("CLOSE c")).To(Equal(&CloseCursor{Text: "CLOSE c", Name: "c"}))
			Expect(parseOneStatement("CLOSE ALL")).To(Equal(&CloseCursor{Text: "CLOSE ALL", All: true}))
		})
	})

	Context("helpers", func() {
		It("should resolve identifiers", func() {
			Expect(identifier("Peer_1")).To(Equal("peer_1"))
			Expect(identifier(`"Peer ""1"""`)).To(Equal(`Peer "1"`))
		})

		It("should unquote identifiers and literals", func() {
			Expect(unquote(`"a""b"`)).To(Equal(`a"b`))
			Expect(unquote(`'it''s'`)).To(Equal("it's"))
			Expect(unquote("plain")).To(Equal("plain"))
		})

		It("should strip comments but keep literals", func() {
			Expect(stripComments("/* x */ SELECT '--not' -- trailing")).To(Equal("SELECT '--not'"))
		})
	})
})
