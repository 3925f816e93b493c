package session

import "time"

type config struct {
	username       string
	password       string
	hasAuth        bool
	userAgent      string
	connectTimeout time.Duration
	readTimeout    time.Duration
	proxyHost      string
	proxyPort      int
}

type Option func(c *config)

func WithCredentials(username, password string) Option {
	return func(c *config) {
		c.username = username
		c.password = password
		c.hasAuth = true
	}
}

func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.userAgent = ua
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) {
		c.connectTimeout = d
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(c *config) {
		c.readTimeout = d
	}
}

func WithProxy(host string, port int) Option {
	return func(c *config) {
		c.proxyHost = host
		c.proxyPort = port
	}
}

func (s *Session) apply(c *config) {
	if c.hasAuth {
		s.SetCredentials(c.username, c.password)
	}
	if len(c.userAgent) > 0 {
		s.SetUserAgent(c.userAgent)
	}
	if c.connectTimeout > 0 {
		s.SetConnectTimeout(c.connectTimeout)
	}
	if c.readTimeout > 0 {
		s.SetReadTimeout(c.readTimeout)
	}
	if len(c.proxyHost) > 0 {
		s.SetProxy(c.proxyHost, c.proxyPort)
	}
}
