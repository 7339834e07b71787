package cli

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitscout/gitscout/pkg/cache"
	"github.com/gitscout/gitscout/pkg/client"
	"github.com/gitscout/gitscout/pkg/export"
	"github.com/gitscout/gitscout/pkg/harvest"
	"github.com/gitscout/gitscout/pkg/logging"
	"github.com/gitscout/gitscout/pkg/ratelimit"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest users and repositories for a location",
		Long: `Run searches GitHub for users matching the location and follower
threshold, fetches each user's profile and repositories, and writes
users.csv, repositories.csv, analysis.json, and README.md to the output
directory.

Any flag can also be set via a GITSCOUT_* environment variable, e.g.
GITSCOUT_TOKEN or GITSCOUT_MIN_FOLLOWERS.`,
		RunE: runHarvest,
	}

	flags := cmd.Flags()
	flags.String("token", "", "GitHub API token (GITSCOUT_TOKEN)")
	flags.String("location", "", "location to search users in (required)")
	flags.Int("min-followers", 100, "minimum follower count for the search")
	flags.Int("repo-pages", 5, "maximum repository pages fetched per user")
	flags.String("output", "output", "directory for result artifacts")
	flags.String("base-url", "https://api.github.com", "API base URL")
	flags.Int("max-calls", 30, "local call budget per window")
	flags.Duration("window", time.Minute, "local call budget window")
	flags.Int("max-attempts", 3, "attempts per request before giving up")
	flags.Duration("base-delay", time.Second, "initial retry backoff delay")
	flags.Float64("multiplier", 2.0, "retry backoff multiplier")
	flags.Duration("poll-interval", 2*time.Second, "wait between not-ready polls")
	flags.Duration("cache-ttl", 5*time.Minute, "response cache TTL (0 disables caching)")
	flags.String("redis", "", "Redis address for shared quota state and cache (optional)")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	return cmd
}

func runHarvest(cmd *cobra.Command, args []string) error {
	location := viper.GetString("location")
	if location == "" {
		return fmt.Errorf("location is required (--location or GITSCOUT_LOCATION)")
	}

	logger := logging.NewLogger("cli")

	cfg := client.DefaultConfig(viper.GetString("token"))
	cfg.BaseURL = viper.GetString("base-url")
	cfg.MaxCalls = viper.GetInt("max-calls")
	cfg.Window = viper.GetDuration("window")
	cfg.Retry.MaxAttempts = viper.GetInt("max-attempts")
	cfg.Retry.BaseDelay = viper.GetDuration("base-delay")
	cfg.Retry.Multiplier = viper.GetFloat64("multiplier")
	cfg.PollInterval = viper.GetDuration("poll-interval")

	var redisClient *redis.Client
	if addr := viper.GetString("redis"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", addr, err)
		}
		cfg.QuotaStore = ratelimit.NewRedisStore(redisClient)
		logger.Info().Str("addr", addr).Msg("Using Redis for shared quota state")
	}

	if ttl := viper.GetDuration("cache-ttl"); ttl > 0 {
		if redisClient != nil {
			cfg.Cache = cache.NewManagerWithRedis(redisClient, ttl)
		} else {
			cfg.Cache = cache.NewManager(ttl)
		}
	}

	api, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	opts := harvest.DefaultOptions(location, viper.GetInt("min-followers"))
	opts.RepoPageCeiling = viper.GetInt("repo-pages")

	result, err := harvest.New(api).Run(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	writer, err := export.NewWriter(viper.GetString("output"))
	if err != nil {
		return err
	}
	if err := writer.WriteAll(result, opts); err != nil {
		return err
	}

	for _, failure := range result.Failures {
		logger.Warn().Str("login", failure.Login).Str("phase", failure.Phase).
			Msg("Entity skipped during harvest")
	}
	logger.Info().
		Int("users", len(result.Users)).
		Int("repos", len(result.Repos)).
		Int("failures", len(result.Failures)).
		Msg("Harvest complete")
	return nil
}
