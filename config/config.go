package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/xxxsen/common/logger"
)

type ListCacheConfig struct {
	Size int    `json:"size"` //0 表示不启用
	TTL  int64  `json:"ttl"`  //秒
	Kind string `json:"kind"` //lru 或 ristretto
}

type Config struct {
	BaseURL        string           `json:"base_url"`
	Username       string           `json:"username"`
	Password       string           `json:"password"`
	UserAgent      string           `json:"user_agent"`
	ConnectTimeout int64            `json:"connect_timeout"`
	ReadTimeout    int64            `json:"read_timeout"`
	Proxy          string           `json:"proxy"`
	Thread         int              `json:"thread"`
	ChunkSize      int              `json:"chunk_size"`
	LogInfo        logger.LogConfig `json:"log_info"`
	ListCache      ListCacheConfig  `json:"list_cache"`
}

func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

func (c *Config) ListCacheTTL() time.Duration {
	return time.Duration(c.ListCache.TTL) * time.Second
}

// ProxyAddr splits the proxy setting, an empty host means no proxy.
func (c *Config) ProxyAddr() (string, int, error) {
	if len(c.Proxy) == 0 {
		return "", 0, nil
	}
	host, port, err := net.SplitHostPort(c.Proxy)
	if err != nil {
		return "", 0, fmt.Errorf("invalid proxy:%s, err:%w", c.Proxy, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return "", 0, fmt.Errorf("invalid proxy port:%s, err:%w", port, err)
	}
	return host, p, nil
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		ConnectTimeout: 30,
		ReadTimeout:    60,
		Thread:         4,
		LogInfo: logger.LogConfig{
			Level:   "info",
			Console: true,
		},
		ListCache: ListCacheConfig{
			TTL:  60,
			Kind: "lru",
		},
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode json failed, err:%w", err)
	}
	if len(c.BaseURL) == 0 {
		return nil, fmt.Errorf("no base_url found")
	}
	if c.Thread <= 0 {
		c.Thread = 1
	}
	return c, nil
}
