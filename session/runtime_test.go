package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeRefcount(t *testing.T) {
	base := RuntimeRefs()
	var wg sync.WaitGroup
	sessions := make([]*Session, 16)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := New("http", "localhost", 0)
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()
	assert.Equal(t, base+len(sessions), RuntimeRefs())
	for _, s := range sessions {
		s.Destroy()
	}
	assert.Equal(t, base, RuntimeRefs())
}

func TestRuntimeSharedState(t *testing.T) {
	a, err := New("https", "a.example.com", 0)
	assert.NoError(t, err)
	defer a.Destroy()
	b, err := New("https", "b.example.com", 0)
	assert.NoError(t, err)
	defer b.Destroy()
	assert.Same(t, a.rt, b.rt)
	assert.NotNil(t, a.rt.tlsCache)
}

func TestRuntimeUnbalancedRelease(t *testing.T) {
	rtMu.Lock()
	saved := rtCount
	rtCount = 0
	rtMu.Unlock()
	defer func() {
		rtMu.Lock()
		rtCount = saved
		rtMu.Unlock()
	}()
	assert.Panics(t, func() {
		releaseRuntime()
	})
}
