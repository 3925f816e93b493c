package entity

type Capability uint32

const (
	CapDAVClass1 Capability = 1 << iota
	CapDAVClass2
	CapDAVClass3
	CapExecutable
	CapDAVACL
	CapVersionControl
	CapActivity
	CapWorkspace
	CapUpdate
	CapLabel
	CapWorkingResource
	CapMerge
	CapBaseline
	CapVersionHistory
	CapVersionControlledCollection
	CapExtendedMkcol
)

func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// ServerCapabilities is the pre-bitmask view of an OPTIONS reply.
//
// Deprecated: use Capability.
type ServerCapabilities struct {
	DAVClass1     bool
	DAVClass2     bool
	DAVExecutable bool
}
