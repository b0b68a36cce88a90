// Package config loads lock manager settings from YAML or JSON.
//
//	redis:
//	  addr: localhost:6379
//	  db: 0
//	lock:
//	  key_prefix: "book_lock:"
//	  ttl: 30s
//	  segments: 64
//	  codec: msgpack
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/pwnedgod/seglock"
	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/codec"
	jsoncodec "github.com/pwnedgod/seglock/codec/json"
	"github.com/pwnedgod/seglock/codec/msgpack"
	"github.com/redis/go-redis/v9"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	ErrEmptyPath         = errors.New("config: empty config path")
	ErrUnsupportedFormat = errors.New("config: unsupported config format")
	ErrLoadFailed        = errors.New("config: failed to load config")
	ErrParseFailed       = errors.New("config: failed to parse config")
)

type Config struct {
	Redis Redis `koanf:"redis"`
	Lock  Lock  `koanf:"lock"`
}

type Redis struct {
	Addr     string `koanf:"addr"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`
}

type Lock struct {
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`

	// Zero selects one key per name.
	Segments int `koanf:"segments"`

	// Zero means half of the ttl.
	RenewalInterval time.Duration `koanf:"renewal_interval"`
	DisableRenewal  bool          `koanf:"disable_renewal"`

	// json or msgpack.
	Codec string `koanf:"codec"`

	// Empty means hostname:pid.
	Identity string `koanf:"identity"`
}

func Default() Config {
	return Config{
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Lock: Lock{
			KeyPrefix: seglock.KeyPrefixDefault,
			TTL:       30 * time.Second,
			Codec:     "json",
		},
	}
}

// Load reads the file at path, picking the format from its extension.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return LoadBytes(data, format)
}

// LoadBytes parses data over Default and validates the result.
func LoadBytes(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, ErrUnsupportedFormat
	}

	cfg := Default()

	if len(data) > 0 {
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the managers would reject, wrapped in
// seglock.ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.Redis.Addr == "" {
		return invalid("redis.addr must not be empty")
	}
	if c.Redis.DB < 0 {
		return invalid("redis.db must not be negative")
	}
	if c.Redis.PoolSize < 0 {
		return invalid("redis.pool_size must not be negative")
	}
	if c.Lock.TTL <= 0 {
		return invalid("lock.ttl must be positive")
	}
	if c.Lock.Segments < 0 {
		return invalid("lock.segments must not be negative")
	}
	if c.Lock.RenewalInterval < 0 {
		return invalid("lock.renewal_interval must not be negative")
	}
	if !c.Lock.DisableRenewal && c.Lock.RenewalInterval >= c.Lock.TTL {
		return invalid("lock.renewal_interval must be shorter than lock.ttl")
	}
	if _, err := c.Lock.codec(); err != nil {
		return err
	}
	return nil
}

func (c Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Username: c.Redis.Username,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
	}
}

// Options translates the lock section into manager options. Logging and
// metrics are left to the caller.
func (c Config) Options() ([]seglock.Option, error) {
	cd, err := c.Lock.codec()
	if err != nil {
		return nil, err
	}

	opts := []seglock.Option{
		seglock.WithKeyPrefix(c.Lock.KeyPrefix),
		seglock.WithCodec(cd),
	}
	if c.Lock.Identity != "" {
		opts = append(opts, seglock.WithIdentity(c.Lock.Identity))
	}

	switch {
	case c.Lock.DisableRenewal:
		opts = append(opts, seglock.WithoutRenewal())
	case c.Lock.RenewalInterval > 0:
		opts = append(opts, seglock.WithRenewalInterval(c.Lock.RenewalInterval))
	}

	return opts, nil
}

// NewLocker builds a SegmentedManager when segments are configured and a
// Manager otherwise. extra is applied after the configured options.
func (c Config) NewLocker(store adapter.LeaseStore, extra ...seglock.Option) (seglock.Locker, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	if c.Lock.Segments > 0 {
		return seglock.NewSegmentedManager(store, c.Lock.Segments, opts...)
	}
	return seglock.NewManager(store, opts...)
}

func (l Lock) codec() (codec.Codec, error) {
	switch strings.ToLower(l.Codec) {
	case "", "json":
		return jsoncodec.NewCodec(), nil
	case "msgpack":
		return msgpack.NewCodec(), nil
	default:
		return nil, invalid(fmt.Sprintf("lock.codec %q is not supported", l.Codec))
	}
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

func invalid(message string) error {
	return fmt.Errorf("%w: %s", seglock.ErrInvalidConfiguration, message)
}
