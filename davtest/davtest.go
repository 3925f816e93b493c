package davtest

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/davkit/entity"
	"golang.org/x/net/webdav"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

var AllowMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions,
	"PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK", "ACL",
}

// Record is one request as the server saw it.
type Record struct {
	Method     string
	RequestURI string
	Path       string
	Header     http.Header
	Body       []byte
}

// Reply is a canned answer. Headers go out in the given order, though
// net/http sorts distinct names on the wire.
type Reply struct {
	Status  int
	Headers []entity.Header
	Body    []byte
}

type Server struct {
	svr      *httptest.Server
	fallback http.Handler

	mu      sync.Mutex
	records []*Record
	replies map[string]*Reply
}

type Option func(s *Server)

// WithFallback hands every request without a canned reply to h.
func WithFallback(h http.Handler) Option {
	return func(s *Server) {
		s.fallback = h
	}
}

// New starts a recording server. Requests without a canned reply and
// without fallback get 404.
func New(opts ...Option) *Server {
	s := &Server{replies: make(map[string]*Reply)}
	for _, opt := range opts {
		opt(s)
	}
	engine := gin.New()
	for _, method := range AllowMethods {
		engine.Handle(method, "/*all", s.handle)
	}
	s.svr = httptest.NewServer(engine)
	return s
}

// NewWebDAV starts a recording server in front of an in-memory WebDAV
// file system with a lock system.
func NewWebDAV() *Server {
	return New(WithFallback(&webdav.Handler{
		FileSystem: webdav.NewMemFS(),
		LockSystem: webdav.NewMemLS(),
	}))
}

func replyKey(method, path string) string {
	return method + " " + path
}

// On registers a canned reply for method on path.
func (s *Server) On(method, path string, reply *Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[replyKey(method, path)] = reply
}

func (s *Server) handle(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	_ = c.Request.Body.Close()
	rec := &Record{
		Method:     c.Request.Method,
		RequestURI: c.Request.RequestURI,
		Path:       c.Request.URL.Path,
		Header:     c.Request.Header.Clone(),
		Body:       body,
	}
	s.mu.Lock()
	s.records = append(s.records, rec)
	reply, ok := s.replies[replyKey(rec.Method, rec.Path)]
	s.mu.Unlock()

	if ok {
		for _, h := range reply.Headers {
			c.Writer.Header().Add(h.Name, h.Value)
		}
		if len(reply.Body) > 0 {
			c.Writer.Header().Set("Content-Length", strconv.Itoa(len(reply.Body)))
		}
		c.Status(reply.Status)
		_, _ = c.Writer.Write(reply.Body)
		return
	}
	if s.fallback == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	s.fallback.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) Records() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := make([]*Record, len(s.records))
	copy(rs, s.records)
	return rs
}

// Last returns the most recent request, nil if there is none.
func (s *Server) Last() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil
	}
	return s.records[len(s.records)-1]
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func (s *Server) URL() string {
	return s.svr.URL
}

func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.svr.Listener.Addr().String())
	return host
}

func (s *Server) Port() int {
	return s.svr.Listener.Addr().(*net.TCPAddr).Port
}

func (s *Server) Close() {
	s.svr.Close()
}
