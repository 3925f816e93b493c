package entity

// LockToken is handed back by LOCK and must be passed unmodified to UNLOCK.
// Timeout is in seconds, 0 means infinite.
type LockToken struct {
	Path    string
	Token   string
	Owner   string
	Timeout int64
}
