package session

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultTLSSessionCacheSize = 64
)

// runtimeState is shared by every live session in the process. It is
// created by the first session and dropped with the last one.
type runtimeState struct {
	tlsCache tls.ClientSessionCache
}

var (
	rtMu    sync.Mutex
	rtCount int
	rtState *runtimeState
)

func acquireRuntime() *runtimeState {
	rtMu.Lock()
	defer rtMu.Unlock()
	if rtCount == 0 {
		rtState = &runtimeState{
			tlsCache: tls.NewLRUClientSessionCache(defaultTLSSessionCacheSize),
		}
		logutil.GetLogger(context.Background()).Debug("dav runtime init")
	}
	rtCount++
	return rtState
}

func releaseRuntime() {
	rtMu.Lock()
	defer rtMu.Unlock()
	if rtCount <= 0 {
		panic("davkit: runtime released without a matching acquire")
	}
	rtCount--
	if rtCount == 0 {
		rtState = nil
		logutil.GetLogger(context.Background()).Debug("dav runtime shutdown")
	}
	logutil.GetLogger(context.Background()).Debug("dav runtime release", zap.Int("refs", rtCount))
}

// RuntimeRefs reports how many sessions currently hold the process-wide runtime.
func RuntimeRefs() int {
	rtMu.Lock()
	defer rtMu.Unlock()
	return rtCount
}
