package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/driver"
	_ "github.com/pior/kvclient/driver/goredis"
	"github.com/pior/kvclient/driver/redigo"
)

var (
	client *kvclient.Client

	rootCmd = &cobra.Command{
		Use:   "kvcli",
		Short: "Command line client for Redis-protocol servers",
		Long: `kvcli runs commands against a standalone server, a sentinel
deployment or a cluster, through either of the registered drivers.

Every flag can also be set from the environment with the KVCLI_ prefix,
for example KVCLI_ADDRS=localhost:6379. Values in .env and .env.local
are loaded first.`,
		SilenceUsage:       true,
		PersistentPreRunE:  openClient,
		PersistentPostRunE: closeClient,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("driver", "goredis", fmt.Sprintf("driver to use (%s)", strings.Join(driver.Drivers(), ", ")))
	flags.String("topology", "standalone", "deployment kind (standalone, sentinel, cluster)")
	flags.String("addrs", "localhost:6379", "comma-separated server, sentinel or cluster node addresses")
	flags.String("master", "", "primary name monitored by the sentinels")
	flags.String("username", "", "ACL username")
	flags.String("password", "", "password")
	flags.Int("db", 0, "logical database")
	flags.Int("pool-size", driver.DefaultPoolSize, "maximum connections per node")
	flags.Duration("timeout", driver.DefaultTimeout, "read and write timeout")
	flags.Bool("stats", false, "print client statistics after the command")
	flags.BoolP("verbose", "v", false, "log failed commands")

	rootCmd.AddCommand(getCmd, setCmd, delCmd, incrCmd, mgetCmd, ttlCmd, pingCmd)
	rootCmd.AddCommand(masterCmd, slotCmd, shellCmd)
}

func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("kvcli")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func options() (driver.Options, error) {
	topology, err := driver.ParseTopology(viper.GetString("topology"))
	if err != nil {
		return driver.Options{}, err
	}
	timeout := viper.GetDuration("timeout")
	return driver.Options{
		Topology:     topology,
		Addrs:        strings.Split(viper.GetString("addrs"), ","),
		MasterName:   viper.GetString("master"),
		Username:     viper.GetString("username"),
		Password:     viper.GetString("password"),
		DB:           viper.GetInt("db"),
		PoolSize:     viper.GetInt("pool-size"),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}, nil
}

func openClient(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	opts, err := options()
	if err != nil {
		return err
	}

	level := slog.LevelError
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	opts.Logger = logger

	client, err = kvclient.Open(viper.GetString("driver"), opts, kvclient.Config{
		Logger:            logger,
		NewCircuitBreaker: kvclient.NewCircuitBreakerConfig(1, time.Minute, 5*time.Second),
	})
	return err
}

func closeClient(_ *cobra.Command, _ []string) error {
	if client == nil {
		return nil
	}
	if viper.GetBool("stats") {
		printStats(client)
	}
	return client.Close()
}

func printStats(c *kvclient.Client) {
	s := c.Stats()
	fmt.Printf("client %s (%s, %s)\n", c.ID(), c.Driver().Name(), c.Topology())
	fmt.Printf("  calls: %d queued: %d flushes: %d execs: %d discards: %d\n",
		s.Calls, s.Queued, s.Flushes, s.Execs, s.Discards)
	fmt.Printf("  rejected: %d errors: %d\n", s.Rejected, s.Errors)
	fmt.Printf("  circuit breaker: %s (%d failures)\n", s.CircuitBreakerState, s.CircuitBreakerCounts.TotalFailures)
	for id, n := range s.Commands {
		fmt.Printf("  %-12s %d\n", id, n)
	}

	if d, ok := c.Driver().(*redigo.Driver); ok {
		p := d.PoolStats()
		fmt.Printf("  pool: %d conns, %d acquired (%d waited), %d created, %d destroyed\n",
			p.TotalConns, p.AcquireCount, p.AcquireWaitCount, p.CreatedConns, p.DestroyedConns)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
