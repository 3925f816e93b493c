package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/errs"
	"go.uber.org/zap"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 60 * time.Second

	defaultIdleConnTimeout = 20 * time.Second
	defaultKeepAlive       = 30 * time.Second
)

type authContext struct {
	username string
	password string
}

func newAuthContext(username, password string) *authContext {
	return &authContext{username: username, password: password}
}

func (a *authContext) destroy() {
	a.username = ""
	a.password = ""
}

// Session is the connection context of one server: its address, auth state
// and transport settings. Address fields never change after New; the rest
// is meant to be configured before the first request.
type Session struct {
	scheme string
	host   string
	port   int
	rt     *runtimeState

	mu             sync.Mutex
	auth           *authContext
	userAgent      string
	connectTimeout time.Duration
	readTimeout    time.Duration
	proxy          *url.URL
	tr             *http.Transport
	hc             *http.Client
	lastErr        string
	destroyed      bool
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// New creates a session for scheme://host:port. An empty scheme means https
// and a zero port means the scheme's default port.
func New(scheme, host string, port int, opts ...Option) (*Session, error) {
	rt := acquireRuntime()
	s, err := newSession(rt, scheme, host, port)
	if err != nil {
		releaseRuntime()
		return nil, err
	}
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	s.apply(c)
	logutil.GetLogger(context.Background()).Debug("session created", zap.String("base_url", s.BaseURL()))
	return s, nil
}

// Parse builds a session from a base url such as https://dav.example.com:8443.
// Only scheme, host and port are used.
func Parse(baseURL string, opts ...Option) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errs.Wrap(errs.CodeError, err, fmt.Sprintf("invalid base url:%s", baseURL))
	}
	port := 0
	if p := u.Port(); len(p) > 0 {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, errs.Wrap(errs.CodeError, err, fmt.Sprintf("invalid port:%s", p))
		}
	}
	return New(u.Scheme, u.Hostname(), port, opts...)
}

func newSession(rt *runtimeState, scheme, host string, port int) (*Session, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if len(scheme) == 0 {
		scheme = "https"
	}
	if scheme != "http" && scheme != "https" {
		return nil, errs.New(errs.CodeError, fmt.Sprintf("failed to create session, unsupported scheme:%s", scheme))
	}
	host = strings.TrimSpace(host)
	if len(host) == 0 {
		return nil, errs.New(errs.CodeError, "baseURL host is missing")
	}
	if strings.ContainsAny(host, "/?#@ \t") {
		return nil, errs.New(errs.CodeLookup, fmt.Sprintf("failed to create session, invalid host:%s", host))
	}
	if port < 0 || port > 65535 {
		return nil, errs.New(errs.CodeError, fmt.Sprintf("failed to create session, invalid port:%d", port))
	}
	if port == 0 {
		port = defaultPort(scheme)
	}
	return &Session{
		scheme:         scheme,
		host:           host,
		port:           port,
		rt:             rt,
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
	}, nil
}

func (s *Session) Scheme() string {
	return s.scheme
}

func (s *Session) Host() string {
	return s.host
}

func (s *Session) Port() int {
	return s.port
}

// HostPort is the authority used in request urls, the port is left out when
// it is the scheme default.
func (s *Session) HostPort() string {
	if s.port == defaultPort(s.scheme) {
		if strings.Contains(s.host, ":") {
			return "[" + s.host + "]"
		}
		return s.host
	}
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

func (s *Session) BaseURL() string {
	return fmt.Sprintf("%s://%s", s.scheme, s.HostPort())
}

// SetCredentials drops the previous auth context before installing the new one.
func (s *Session) SetCredentials(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth != nil {
		s.auth.destroy()
		s.auth = nil
	}
	s.auth = newAuthContext(username, password)
}

func (s *Session) ClearCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth != nil {
		s.auth.destroy()
		s.auth = nil
	}
}

func (s *Session) HasCredentials() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth != nil
}

func (s *Session) SetUserAgent(ua string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAgent = ua
}

func (s *Session) UserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAgent
}

func (s *Session) SetConnectTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectTimeout = d
	s.resetTransportLocked()
}

func (s *Session) SetReadTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readTimeout = d
	s.resetTransportLocked()
}

func (s *Session) Timeouts() (connect time.Duration, read time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectTimeout, s.readTimeout
}

// SetProxy routes every request through an http proxy at host:port.
func (s *Session) SetProxy(host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proxy = &url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	s.resetTransportLocked()
}

func (s *Session) Proxy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proxy == nil {
		return ""
	}
	return s.proxy.Host
}

// Decorate adds session level headers (auth, user agent) to req unless the
// caller already set them.
func (s *Session) Decorate(req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth != nil && len(req.Header.Get("Authorization")) == 0 {
		req.SetBasicAuth(s.auth.username, s.auth.password)
	}
	if len(s.userAgent) > 0 && len(req.Header.Get("User-Agent")) == 0 {
		req.Header.Set("User-Agent", s.userAgent)
	}
}

// HTTPClient returns the client bound to this session, building the
// transport on first use.
func (s *Session) HTTPClient() (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, errs.New(errs.CodeError, "session already destroyed")
	}
	if s.hc == nil {
		s.tr = s.buildTransportLocked()
		s.hc = &http.Client{
			Transport: s.tr,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return s.hc, nil
}

func (s *Session) buildTransportLocked() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   s.connectTimeout,
		KeepAlive: defaultKeepAlive,
	}
	readTimeout := s.readTimeout
	tlsConfig := &tls.Config{
		ServerName:         s.host,
		ClientSessionCache: s.rt.tlsCache,
	}
	tr := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return newRecordConn(conn, readTimeout), nil
		},
		TLSClientConfig:       tlsConfig,
		TLSNextProto:          map[string]func(string, *tls.Conn) http.RoundTripper{},
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ResponseHeaderTimeout: readTimeout,
		DisableCompression:    true,
	}
	if s.scheme == "https" {
		tr.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			tconn := tls.Client(conn, tlsConfig.Clone())
			if err := tconn.HandshakeContext(ctx); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return newRecordConn(tconn, readTimeout), nil
		}
	}
	if s.proxy != nil {
		tr.Proxy = http.ProxyURL(s.proxy)
	}
	return tr
}

func (s *Session) resetTransportLocked() {
	if s.tr != nil {
		s.tr.CloseIdleConnections()
	}
	s.tr = nil
	s.hc = nil
}

// SetError records the last failure seen on this connection.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}

// LastError returns the last failure string, or a generic one when nothing
// more specific was recorded.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lastErr) == 0 {
		return fmt.Sprintf("request to %s failed", s.HostPort())
	}
	return s.lastErr
}

// Close drops the live connections. The session stays usable and reconnects
// on the next request.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr != nil {
		s.tr.CloseIdleConnections()
	}
}

func (s *Session) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Destroy releases auth state, the transport and finally the runtime
// reference taken by New. Calling it again is a no-op.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	if s.auth != nil {
		s.auth.destroy()
		s.auth = nil
	}
	s.resetTransportLocked()
	s.mu.Unlock()
	releaseRuntime()
	logutil.GetLogger(context.Background()).Debug("session destroyed", zap.String("base_url", s.BaseURL()))
}
