package session

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xxxsen/davkit/errs"
)

func TestNewDefaults(t *testing.T) {
	s, err := New("https", "dav.example.com", 0)
	assert.NoError(t, err)
	defer s.Destroy()
	assert.Equal(t, "https", s.Scheme())
	assert.Equal(t, 443, s.Port())
	assert.Equal(t, "dav.example.com", s.HostPort())
	assert.Equal(t, "https://dav.example.com", s.BaseURL())
	connect, read := s.Timeouts()
	assert.Equal(t, DefaultConnectTimeout, connect)
	assert.Equal(t, DefaultReadTimeout, read)

	h, err := New("http", "127.0.0.1", 8080)
	assert.NoError(t, err)
	defer h.Destroy()
	assert.Equal(t, "127.0.0.1:8080", h.HostPort())
	assert.Equal(t, "http://127.0.0.1:8080", h.BaseURL())

	e, err := New("", "example.org", 0)
	assert.NoError(t, err)
	defer e.Destroy()
	assert.Equal(t, "https", e.Scheme())
}

func TestNewInvalid(t *testing.T) {
	refs := RuntimeRefs()
	_, err := New("https", "", 0)
	assert.Error(t, err)
	de, ok := errs.AsDavError(err)
	assert.True(t, ok)
	assert.Equal(t, "baseURL host is missing", de.Message)
	assert.False(t, de.HasHTTPStatus())

	_, err = New("ftp", "example.org", 0)
	assert.Error(t, err)
	_, err = New("http", "bad host/x", 0)
	assert.Error(t, err)
	_, err = New("http", "example.org", 70000)
	assert.Error(t, err)
	assert.Equal(t, refs, RuntimeRefs())
}

func TestParse(t *testing.T) {
	s, err := Parse("http://localhost:9000/ignored/path")
	assert.NoError(t, err)
	defer s.Destroy()
	assert.Equal(t, "http", s.Scheme())
	assert.Equal(t, "localhost", s.Host())
	assert.Equal(t, 9000, s.Port())

	_, err = Parse("dav.example.com")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	s, err := New("http", "localhost", 0,
		WithCredentials("u", "p"),
		WithUserAgent("davkit-test"),
		WithConnectTimeout(time.Second),
		WithReadTimeout(2*time.Second),
		WithProxy("proxy.local", 3128),
	)
	assert.NoError(t, err)
	defer s.Destroy()
	assert.True(t, s.HasCredentials())
	assert.Equal(t, "davkit-test", s.UserAgent())
	connect, read := s.Timeouts()
	assert.Equal(t, time.Second, connect)
	assert.Equal(t, 2*time.Second, read)
	assert.Equal(t, "proxy.local:3128", s.Proxy())
}

func TestCredentialReplace(t *testing.T) {
	s, err := New("http", "localhost", 0)
	assert.NoError(t, err)
	defer s.Destroy()
	s.SetCredentials("alice", "one")
	old := s.auth
	s.SetCredentials("bob", "two")
	assert.Equal(t, "", old.username)
	assert.Equal(t, "", old.password)

	req, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)
	s.Decorate(req)
	u, p, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "bob", u)
	assert.Equal(t, "two", p)

	s.ClearCredentials()
	assert.False(t, s.HasCredentials())
	req, _ = http.NewRequest(http.MethodGet, "http://localhost/", nil)
	s.Decorate(req)
	_, _, ok = req.BasicAuth()
	assert.False(t, ok)
}

func TestDecorateKeepsCallerHeaders(t *testing.T) {
	s, err := New("http", "localhost", 0, WithCredentials("u", "p"), WithUserAgent("ua"))
	assert.NoError(t, err)
	defer s.Destroy()
	req, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)
	req.Header.Set("Authorization", "Bearer x")
	req.Header.Set("User-Agent", "mine")
	s.Decorate(req)
	assert.Equal(t, "Bearer x", req.Header.Get("Authorization"))
	assert.Equal(t, "mine", req.Header.Get("User-Agent"))
}

func TestCloseAndDestroy(t *testing.T) {
	s, err := New("http", "localhost", 0)
	assert.NoError(t, err)
	hc, err := s.HTTPClient()
	assert.NoError(t, err)
	assert.NotNil(t, hc)
	again, err := s.HTTPClient()
	assert.NoError(t, err)
	assert.Same(t, hc, again)

	s.Close()
	s.Close()
	_, err = s.HTTPClient()
	assert.NoError(t, err)

	s.SetReadTimeout(time.Second)
	rebuilt, err := s.HTTPClient()
	assert.NoError(t, err)
	assert.NotSame(t, hc, rebuilt)

	s.Destroy()
	s.Destroy()
	assert.True(t, s.Destroyed())
	_, err = s.HTTPClient()
	assert.Error(t, err)
}

func TestLastError(t *testing.T) {
	s, err := New("http", "localhost", 8081)
	assert.NoError(t, err)
	defer s.Destroy()
	assert.Contains(t, s.LastError(), "localhost:8081")
	s.SetError("connection refused")
	assert.Equal(t, "connection refused", s.LastError())
}
