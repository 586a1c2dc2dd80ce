package snowflake

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type staticAuth struct {
	err error
}

func (a staticAuth) Token(context.Context) (string, error) {
	return "test-token", a.err
}

func (staticAuth) TokenType() string {
	return "KEYPAIR_JWT"
}

type recordedRequest struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   []byte
}

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		mu       sync.Mutex
		requests []recordedRequest
		handler  http.HandlerFunc
		server   *httptest.Server
		client   *Client
	)

	resultSet := func(handle string, partitions int, rows ...[]string) map[string]interface{} {
		info := make([]map[string]interface{}, partitions)
		for i := range info {
			info[i] = map[string]interface{}{"rowCount": 1}
		}
		return map[string]interface{}{
			"code":            "090001",
			"statementHandle": handle,
			"resultSetMetaData": map[string]interface{}{
				"numRows": 3,
				"format":  "jsonv2",
				"rowType": []map[string]interface{}{
					{"name": "ID", "type": "fixed", "nullable": false},
					{"name": "NAME", "type": "text", "nullable": true},
				},
				"partitionInfo": info,
			},
			"data": rows,
		}
	}

	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		Expect(json.NewEncoder(w).Encode(v)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		requests = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.Query(), header: r.Header.Clone(), body: body})
			mu.Unlock()
			handler(w, r)
		}))

		var err error
		client, err = New(Config{
			Endpoint:     server.URL + "/api/v2/statements",
			Warehouse:    "WH",
			Database:     "DB",
			Timeout:      30 * time.Second,
			PollInterval: time.Millisecond,
		}, staticAuth{})
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should default the endpoint from the account", func() {
		c, err := New(Config{AccountID: "XY12345"}, staticAuth{})
		Expect(err).ToNot(HaveOccurred())
		Expect(c.endpoint).To(Equal("https://xy12345.snowflakecomputing.com/api/v2/statements"))

		_, err = New(Config{}, staticAuth{})
		Expect(err).To(HaveOccurred())
		_, err = New(Config{AccountID: "a"}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should submit the statement with auth headers and a request id", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, resultSet("h1", 1, []string{"1", "a"}))
		}

		rs, err := client.Submit(ctx, "select 1")
		Expect(err).ToNot(HaveOccurred())
		Expect(rs.StatementHandle).To(Equal("h1"))
		Expect(rs.ResultSetMetaData.RowType[0].Type).To(Equal(types.DomainFixed))

		Expect(requests).To(HaveLen(1))
		req := requests[0]
		Expect(req.method).To(Equal(http.MethodPost))
		Expect(req.path).To(Equal("/api/v2/statements"))
		Expect(req.query["requestId"]).To(HaveLen(1))
		Expect(req.header.Get("Authorization")).To(Equal("Bearer test-token"))
		Expect(req.header.Get("X-Snowflake-Authorization-Token-Type")).To(Equal("KEYPAIR_JWT"))
		Expect(req.header.Get("Accept")).To(Equal("application/json"))

		var body map[string]interface{}
		Expect(json.Unmarshal(req.body, &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("statement", "select 1"))
		Expect(body).To(HaveKeyWithValue("timeout", float64(30)))
		Expect(body).To(HaveKeyWithValue("warehouse", "WH"))
		Expect(body).ToNot(HaveKey("role"))
	})

	It("should poll a statement that is still running", func() {
		polls := 0
		handler = func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				writeJSON(w, http.StatusAccepted, map[string]interface{}{"code": "333334", "statementHandle": "h2"})
				return
			}
			polls++
			if polls < 2 {
				writeJSON(w, http.StatusAccepted, map[string]interface{}{"code": "333334", "statementHandle": "h2"})
				return
			}
			writeJSON(w, http.StatusOK, resultSet("h2", 1, []string{"1", "a"}))
		}

		rs, err := client.Submit(ctx, "select 1")
		Expect(err).ToNot(HaveOccurred())
		Expect(rs.Data).To(HaveLen(1))
		Expect(requests).To(HaveLen(3))
		Expect(requests[2].path).To(Equal("/api/v2/statements/h2"))
	})

	It("should fetch one partition with a single request", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": [][]interface{}{{"2", nil}}})
		}

		rows, err := client.FetchPartition(ctx, "h3", 4)
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(*rows[0][0]).To(Equal("2"))
		Expect(rows[0][1]).To(BeNil())

		Expect(requests).To(HaveLen(1))
		Expect(requests[0].method).To(Equal(http.MethodGet))
		Expect(requests[0].path).To(Equal("/api/v2/statements/h3"))
		Expect(requests[0].query["partition"]).To(Equal([]string{"4"}))
		Expect(requests[0].header.Get("Authorization")).To(Equal("Bearer test-token"))
	})

	It("should report API errors with status and message", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"code": "002003", "message": "Object does not exist"})
		}

		_, err := client.FetchPartition(ctx, "h4", 1)
		Expect(err).To(MatchError(ContainSubstring("returned 422: Object does not exist (code 002003)")))
		Expect(requests).To(HaveLen(1))
	})

	It("should report non JSON error bodies", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}
		_, err := client.FetchPartition(ctx, "h5", 1)
		Expect(err).To(MatchError(ContainSubstring("returned 502: bad gateway")))
	})

	It("should not send a request when the token cannot be obtained", func() {
		failing, err := New(Config{Endpoint: server.URL}, staticAuth{err: errors.New("no key")})
		Expect(err).ToNot(HaveOccurred())
		_, err = failing.FetchPartition(ctx, "h6", 1)
		Expect(err).To(MatchError(ContainSubstring("failed to get auth token")))
		Expect(requests).To(BeEmpty())
	})

	It("should stream every partition of a query in order", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost:
				writeJSON(w, http.StatusOK, resultSet("h7", 3, []string{"1", "a"}))
			case r.URL.Query().Get("partition") == "1":
				writeJSON(w, http.StatusOK, map[string]interface{}{"data": [][]string{{"2", "b"}}})
			case r.URL.Query().Get("partition") == "2":
				writeJSON(w, http.StatusOK, map[string]interface{}{"data": [][]string{{"3", "c"}}})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}

		stream, err := client.Query(ctx, "select id, name from t")
		Expect(err).ToNot(HaveOccurred())
		defer stream.Close()

		var ids []peerwire.Value
		for {
			record, err := stream.Next(ctx)
			if err == io.EOF {
				break
			}
			Expect(err).ToNot(HaveOccurred())
			ids = append(ids, record.Values[0])
		}
		Expect(ids).To(Equal([]peerwire.Value{peerwire.BigInt(1), peerwire.BigInt(2), peerwire.BigInt(3)}))
		Expect(requests).To(HaveLen(3))
	})

	It("should surface a failed partition fetch as a network error", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				writeJSON(w, http.StatusOK, resultSet("h8", 2, []string{"1", "a"}))
				return
			}
			http.Error(w, strings.Repeat("x", 10), http.StatusServiceUnavailable)
		}

		stream, err := client.Query(ctx, "select 1")
		Expect(err).ToNot(HaveOccurred())
		_, err = stream.Next(ctx)
		Expect(err).ToNot(HaveOccurred())
		_, err = stream.Next(ctx)
		Expect(peerwire.IsKind(err, peerwire.NetworkError)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("503"))
	})

	It("should return a network error when submission fails", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}
		_, err := client.Query(ctx, "select 1")
		Expect(peerwire.IsKind(err, peerwire.NetworkError)).To(BeTrue())
	})
})
