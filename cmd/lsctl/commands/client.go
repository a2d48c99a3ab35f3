package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/logstream-client/internal/auth"
	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
	"github.com/fivetwenty-io/logstream-client/pkg/lsclient"
)

// Static errors for err113 compliance.
var (
	ErrLegacyStoreReadOnly = errors.New("legacy password store is read-only")
)

// session holds what one CLI invocation opened so it can be released on exit.
type session struct {
	mutex   sync.Mutex
	clients []logstream.Client
	closers []func()
	logger  logstream.Logger
}

var current = &session{}

func (s *session) track(client logstream.Client, closers ...func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if client != nil {
		s.clients = append(s.clients, client)
	}

	s.closers = append(s.closers, closers...)
}

// CloseClients closes every client opened by this invocation and logs their
// cache statistics at debug level.
func CloseClients() {
	current.mutex.Lock()
	defer current.mutex.Unlock()

	for _, client := range current.clients {
		stats := client.CacheStats()
		if current.logger != nil {
			current.logger.Debug("cache statistics", map[string]interface{}{
				"hits":          stats.Hits,
				"misses":        stats.Misses,
				"sets":          stats.Sets,
				"invalidations": stats.Invalidations,
				"hit_rate":      stats.GetHitRate(),
			})
		}

		_ = client.Close()
	}

	// Closers run in reverse so the logger goes last.
	for i := len(current.closers) - 1; i >= 0; i-- {
		current.closers[i]()
	}

	current.clients = nil
	current.closers = nil
	current.logger = nil
}

// commandLogger builds the logger for this invocation once.
func commandLogger(config *Config) (logstream.Logger, error) {
	current.mutex.Lock()
	defer current.mutex.Unlock()

	if current.logger != nil {
		return current.logger, nil
	}

	level := viper.GetString("log_level")
	if level == "" {
		level = config.LogLevel
	}

	if viper.GetBool("verbose") {
		level = "debug"
	}

	file := viper.GetString("log_file")
	if file == "" {
		file = config.LogFile
	}

	logger, closer, err := NewLogger(level, file)
	if err != nil {
		return nil, err
	}

	current.logger = logger
	current.closers = append(current.closers, closer)

	return logger, nil
}

// credentialStore returns the file store, migrating passwords that older
// versions kept in the config file.
func credentialStore(logger logstream.Logger) *auth.MigratingStore {
	return auth.NewMigratingStore(
		auth.NewFileCredentialStore(credentialsFilePath()),
		&configPasswordStore{},
		logger,
	)
}

// configPasswordStore exposes the legacy password field of the config file
// as a credential store. Deleting clears the field.
type configPasswordStore struct {
	mutex sync.Mutex
}

func (s *configPasswordStore) LoadSecret(ctx context.Context, id string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return "", false, err
	}

	connection, ok := config.Connections[id]
	if !ok || connection.Password == "" {
		return "", false, nil
	}

	return connection.Password, true, nil
}

func (s *configPasswordStore) SaveSecret(ctx context.Context, id, secret string) error {
	return ErrLegacyStoreReadOnly
}

func (s *configPasswordStore) DeleteSecret(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	connection, ok := config.Connections[id]
	if !ok || connection.Password == "" {
		return nil
	}

	connection.Password = ""

	return saveConfig(config)
}

// cacheBackend builds the configured cache. Each connection gets its own NATS
// bucket so responses of different servers never mix. The returned closer
// releases a NATS connection if one was opened.
func cacheBackend(settings CacheSettings, connectionID string) (logstream.Cache, func(), error) {
	cacheConfig := logstream.DefaultCacheConfig()

	if settings.Type != "" {
		cacheConfig.Type = logstream.CacheType(settings.Type)
	}

	if settings.TTL != "" {
		ttl, err := time.ParseDuration(settings.TTL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("parsing cache ttl: %w", err)
		}

		cacheConfig.TTL = ttl
	}

	if cacheConfig.Type == logstream.CacheTypeNATS || cacheConfig.Type == logstream.CacheTypeTiered {
		cacheConfig.NATS = &logstream.NATSKVConfig{
			URL:    settings.NATSURL,
			Bucket: connectionBucket(settings.Bucket, connectionID),
		}
	}

	cache, err := logstream.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, func() {}, fmt.Errorf("creating cache: %w", err)
	}

	closer := func() {}
	if closable, ok := cache.(interface{ Close() }); ok {
		closer = closable.Close
	}

	return cache, closer, nil
}

// connectionBucket derives a bucket name from base and the connection id,
// keeping only characters JetStream allows in bucket names.
func connectionBucket(base, connectionID string) string {
	if base == "" {
		base = constants.DefaultNATSBucket
	}

	suffix := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, connectionID)

	if suffix == "" {
		return base
	}

	return base + "_" + suffix
}

// newClient creates a client for the selected connection.
func newClient(ctx context.Context) (logstream.Client, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	connection, err := selectedConnection(config)
	if err != nil {
		return nil, err
	}

	return newClientFor(ctx, config, connection, false)
}

// newClientFor creates a client for connection, optionally checking liveness.
func newClientFor(ctx context.Context, config *Config, connection *ConnectionConfig, verify bool) (logstream.Client, error) {
	logger, err := commandLogger(config)
	if err != nil {
		return nil, err
	}

	cache, closeCache, err := cacheBackend(config.Cache, connection.ID)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if config.Timeout != "" {
		timeout, err = time.ParseDuration(config.Timeout)
		if err != nil {
			closeCache()

			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
	}

	verbose := viper.GetBool("verbose")

	client, err := lsclient.NewFromConnection(ctx, connection.Connection(), credentialStore(logger),
		func(clientConfig *logstream.Config) {
			clientConfig.Logger = logger
			clientConfig.Debug = verbose
			clientConfig.Cache = cache
			clientConfig.HTTPTimeout = timeout
			clientConfig.RateLimit = config.RateLimit
			clientConfig.SkipTLSVerify = connection.SkipTLSVerify
			clientConfig.VerifyOnInit = verify

			if verbose {
				clientConfig.Interceptors = logstream.NewInterceptorChain().
					AddRequestInterceptor(logstream.LoggingInterceptor(logger)).
					AddResponseInterceptor(logstream.LoggingResponseInterceptor(logger))
			}
		})
	if err != nil {
		closeCache()

		return nil, err
	}

	current.track(client, closeCache)

	return client, nil
}
