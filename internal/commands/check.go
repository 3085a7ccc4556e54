package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/kitsune-sumo/settings/cache"
	"github.com/kitsune-sumo/settings/cache/redis"
	"github.com/kitsune-sumo/settings/config"
	"github.com/kitsune-sumo/settings/logger"
	"github.com/kitsune-sumo/settings/search"
)

const defaultPingTimeout = 5 * time.Second

// CheckOptions holds options for the check command
type CheckOptions struct {
	loadOptions
	Ping        bool
	PingTimeout time.Duration

	// connector dials redis backends; replaced in tests
	connector cache.Connector
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{connector: redis.Connector()}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the effective settings",
		Long: `Parses every redis backend URL, resolves every search index role
and checks the search and broker URLs. With --ping every distinct redis
backend is also dialed.

Exits non-zero when any check fails.`,
		Example: `  # Check what tests will use, including redis reachability
  kitsune-settings check --test --ping`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory containing settings.yaml")
	cmd.Flags().BoolVar(&opts.Testing, "test", false, "Apply the test override table")
	cmd.Flags().BoolVar(&opts.Ping, "ping", false, "Dial every redis backend")
	cmd.Flags().DurationVar(&opts.PingTimeout, "ping-timeout", defaultPingTimeout, "Timeout per redis ping")

	return cmd
}

// checker accumulates check results.
type checker struct {
	w      io.Writer
	filter *logger.SensitiveDataFilter
	failed int
}

func (c *checker) report(field, value string, err error) {
	value = c.filter.FilterString(field, value)
	if err != nil {
		c.failed++
		fmt.Fprintf(c.w, "FAIL %s %s: %v\n", field, value, err)
		return
	}
	fmt.Fprintf(c.w, "ok   %s %s\n", field, value)
}

func runCheck(ctx context.Context, w io.Writer, opts *CheckOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}

	c := &checker{w: w, filter: logger.NewSensitiveDataFilter(nil)}

	checkRedis(c, cfg)
	checkSearch(c, cfg)
	checkBroker(c, cfg)

	if opts.Ping {
		pingRedis(ctx, c, cfg, opts)
	}

	if c.failed > 0 {
		return fmt.Errorf("check failed: %d problem(s)", c.failed)
	}
	fmt.Fprintln(w, "all checks passed")
	return nil
}

func checkRedis(c *checker, cfg *config.Config) {
	backends := cfg.Redis.Backends
	if len(backends) == 0 {
		c.report(config.KeyRedisBackends, "", config.NewMissingFieldError(config.KeyRedisBackends))
		return
	}
	for _, role := range slices.Sorted(maps.Keys(backends)) {
		_, err := redis.ParseURL(backends[role])
		c.report(config.KeyRedisBackends+"."+role, backends[role], err)
	}
}

func checkSearch(c *checker, cfg *config.Config) {
	_, err := search.NewElasticBackend(cfg.Search.URL, nil)
	c.report(config.KeySearchURL, cfg.Search.URL, err)

	indexes := search.NewIndexes(cfg.Search)
	roles := make(map[string]struct{})
	for role := range cfg.Search.Indexes {
		roles[role] = struct{}{}
	}
	for role := range cfg.Search.WriteIndexes {
		roles[role] = struct{}{}
	}

	for _, role := range slices.Sorted(maps.Keys(roles)) {
		name, err := indexes.ReadIndex(role)
		c.report(config.KeySearchIndexes+"."+role, name, err)
		name, err = indexes.WriteIndex(role)
		c.report(config.KeySearchWriteIndexes+"."+role, name, err)
	}
}

func checkBroker(c *checker, cfg *config.Config) {
	if cfg.Tasks.AlwaysEager {
		c.report(config.KeyTasksAlwaysEager, "true", nil)
		return
	}

	u, err := url.Parse(cfg.Tasks.BrokerURL)
	if err == nil && u.Scheme != "amqp" && u.Scheme != "amqps" {
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	c.report(config.KeyTasksBrokerURL, cfg.Tasks.BrokerURL, err)
}

func pingRedis(ctx context.Context, c *checker, cfg *config.Config, opts *CheckOptions) {
	mgr, err := cache.NewManager(cfg.Redis.Backends, opts.connector, nil)
	if err != nil {
		c.report(config.KeyRedisBackends, "", err)
		return
	}
	defer mgr.Close()

	for _, role := range mgr.Roles() {
		backendURL, _ := mgr.URL(role)
		err := ping(ctx, mgr, role, opts.PingTimeout)
		c.report("ping "+config.KeyRedisBackends+"."+role, backendURL, err)
	}
}

func ping(ctx context.Context, mgr *cache.Manager, role string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := mgr.Get(ctx, role)
	if err != nil {
		return err
	}
	return c.Health(ctx)
}
