package entity

type Privilege uint32

const (
	PrivRead Privilege = 1 << iota
	PrivWrite
	PrivWriteProperties
	PrivWriteContent
	PrivUnlock
	PrivReadACL
	PrivReadCurrentUserPrivilegeSet
	PrivWriteACL
	PrivBind
	PrivUnbind
	PrivAll
)

type ACLTargetKind int

const (
	ACLTargetHref ACLTargetKind = iota
	ACLTargetProperty
	ACLTargetAll
	ACLTargetAuthenticated
	ACLTargetUnauthenticated
	ACLTargetSelf
)

// ACLTarget is the principal an ACE applies to. Value is only meaningful for
// the href (resource URI) and property (property name) kinds.
type ACLTarget struct {
	Kind  ACLTargetKind
	Value string
}

func HrefTarget(uri string) ACLTarget {
	return ACLTarget{Kind: ACLTargetHref, Value: uri}
}

func PropertyTarget(name string) ACLTarget {
	return ACLTarget{Kind: ACLTargetProperty, Value: name}
}

func AllTarget() ACLTarget {
	return ACLTarget{Kind: ACLTargetAll}
}

func AuthenticatedTarget() ACLTarget {
	return ACLTarget{Kind: ACLTargetAuthenticated}
}

func UnauthenticatedTarget() ACLTarget {
	return ACLTarget{Kind: ACLTargetUnauthenticated}
}

func SelfTarget() ACLTarget {
	return ACLTarget{Kind: ACLTargetSelf}
}

type ACLOperation int

const (
	ACLGrant ACLOperation = iota
	ACLDeny
)

type ACLRule struct {
	Target     ACLTarget
	Operation  ACLOperation
	Privileges Privilege
}

type LegacyApply int

const (
	LegacyApplyHref LegacyApply = iota
	LegacyApplyProperty
	LegacyApplyAll
)

// LegacyACLRule carries named privilege flags instead of a bitmask.
//
// Deprecated: use ACLRule.
type LegacyACLRule struct {
	Apply                          LegacyApply
	Operation                      ACLOperation
	Principal                      string
	CanRead                        bool
	CanReadACL                     bool
	CanWrite                       bool
	CanWriteACL                    bool
	CanReadCurrentUserPrivilegeSet bool
}

// ToRule translates the flags into the bitmask form. Unknown apply values
// fall back to "all", the same as the old engine.
func (l *LegacyACLRule) ToRule() *ACLRule {
	var target ACLTarget
	switch l.Apply {
	case LegacyApplyHref:
		target = HrefTarget(l.Principal)
	case LegacyApplyProperty:
		target = PropertyTarget(l.Principal)
	default:
		target = AllTarget()
	}
	var privs Privilege
	if l.CanRead {
		privs |= PrivRead
	}
	if l.CanReadACL {
		privs |= PrivReadACL
	}
	if l.CanWrite {
		privs |= PrivWrite
	}
	if l.CanWriteACL {
		privs |= PrivWriteACL
	}
	if l.CanReadCurrentUserPrivilegeSet {
		privs |= PrivReadCurrentUserPrivilegeSet
	}
	op := ACLGrant
	if l.Operation != ACLGrant {
		op = ACLDeny
	}
	return &ACLRule{Target: target, Operation: op, Privileges: privs}
}
