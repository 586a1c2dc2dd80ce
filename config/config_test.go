package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kent-id/peerwire/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string
	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "peerwire-config")
		Expect(err).ToNot(HaveOccurred())
	})
	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	Context("Load", func() {
		It("should read, expand and default a config file", func() {
			Expect(os.Setenv("PEERWIRE_TEST_WAREHOUSE", "COMPUTE_WH")).To(Succeed())
			defer os.Unsetenv("PEERWIRE_TEST_WAREHOUSE")

			path := filepath.Join(dir, "peerwire.yaml")
			Expect(os.WriteFile(path, []byte(`
log:
  level: debug
catalog:
  peers:
    - name: sf
      type: snowflake
      options:
        warehouse: ${PEERWIRE_TEST_WAREHOUSE}
    - name: logs
      type: athena
snowflake:
  account: xy12345
  user: proxy
  timeout: 30s
athena:
  region: us-east-1
  wait_interval: 250ms
`), 0o600)).To(Succeed())

			cfg, err := Load(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Log.Level).To(Equal("debug"))
			Expect(cfg.Catalog.Peers).To(HaveLen(2))
			Expect(cfg.Catalog.Peers[0].Type).To(Equal(types.PeerTypeSnowflake))
			Expect(cfg.Catalog.Peers[0].Options).To(HaveKeyWithValue("warehouse", "COMPUTE_WH"))
			Expect(cfg.Catalog.Peers[1].Options).ToNot(BeNil())
			Expect(cfg.Snowflake.Timeout).To(Equal(30 * time.Second))
			Expect(cfg.Athena.WaitInterval).To(Equal(250 * time.Millisecond))
			Expect(cfg.Athena.Catalog).To(Equal("AwsDataCatalog"))
			Expect(cfg.Athena.Workgroup).To(Equal("primary"))
		})

		It("should return error for a missing file", func() {
			_, err := Load(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(MatchError(ContainSubstring("reading config file")))
		})
	})

	Context("Parse", func() {
		It("should apply defaults to an empty config", func() {
			cfg, err := Parse([]byte(""))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Log.Level).To(Equal("warn"))
			Expect(cfg.Snowflake.Timeout).To(Equal(60 * time.Second))
			Expect(cfg.Athena.WaitInterval).To(Equal(time.Second))
		})

		It("should expand unset variables to empty", func() {
			Expect(expandEnvVars("dsn: ${PEERWIRE_TEST_UNSET}")).To(Equal("dsn: "))
		})

		It("should reject malformed yaml", func() {
			_, err := Parse([]byte("log: ["))
			Expect(err).To(MatchError(ContainSubstring("parsing config")))
		})

		It("should collect every validation error", func() {
			_, err := Parse([]byte(`
log:
  level: loud
catalog:
  dsn: postgres://localhost/peers
  peers:
    - name: a
      type: oracle
    - name: a
      type: postgres
    - type: athena
snowflake:
  user: proxy
`))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(`log.level "loud"`))
			Expect(err.Error()).To(ContainSubstring("mutually exclusive"))
			Expect(err.Error()).To(ContainSubstring(`catalog.peers[0].type "oracle" is not supported`))
			Expect(err.Error()).To(ContainSubstring(`catalog.peers[1].name "a" is duplicated`))
			Expect(err.Error()).To(ContainSubstring("catalog.peers[2].name is required"))
			Expect(err.Error()).To(ContainSubstring("snowflake.account or snowflake.endpoint"))
		})
	})
})
