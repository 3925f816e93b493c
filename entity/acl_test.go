package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyRuleToRule(t *testing.T) {
	l := &LegacyACLRule{
		Apply:                          LegacyApplyHref,
		Operation:                      ACLDeny,
		Principal:                      "/principals/users/bob",
		CanRead:                        true,
		CanReadACL:                     true,
		CanWrite:                       true,
		CanWriteACL:                    true,
		CanReadCurrentUserPrivilegeSet: true,
	}
	r := l.ToRule()
	assert.Equal(t, HrefTarget("/principals/users/bob"), r.Target)
	assert.Equal(t, ACLDeny, r.Operation)
	assert.Equal(t, PrivRead|PrivReadACL|PrivWrite|PrivWriteACL|PrivReadCurrentUserPrivilegeSet, r.Privileges)
}

func TestLegacyRuleApplyFallback(t *testing.T) {
	r := (&LegacyACLRule{Apply: LegacyApply(9), Principal: "ignored", CanRead: true}).ToRule()
	assert.Equal(t, AllTarget(), r.Target)
	assert.Equal(t, ACLGrant, r.Operation)
	assert.Equal(t, PrivRead, r.Privileges)

	r = (&LegacyACLRule{Apply: LegacyApplyProperty, Principal: "owner"}).ToRule()
	assert.Equal(t, PropertyTarget("owner"), r.Target)
	assert.Equal(t, Privilege(0), r.Privileges)
}

func TestPrivilegeBits(t *testing.T) {
	assert.Equal(t, Privilege(0x1), PrivRead)
	assert.Equal(t, Privilege(0x20), PrivReadACL)
	assert.Equal(t, Privilege(0x40), PrivReadCurrentUserPrivilegeSet)
	assert.Equal(t, Privilege(0x80), PrivWriteACL)
	assert.Equal(t, Privilege(0x400), PrivAll)
}

func TestDepthString(t *testing.T) {
	assert.Equal(t, "0", DepthZero.String())
	assert.Equal(t, "1", DepthOne.String())
	assert.Equal(t, "infinity", DepthInfinite.String())
}

func TestResponseHeaderLookup(t *testing.T) {
	rsp := &RawResponse{Headers: []Header{
		{Name: "DAV", Value: "1, 2"},
		{Name: "X-Seq", Value: "a"},
		{Name: "dav", Value: "access-control"},
	}}
	assert.Equal(t, []string{"1, 2", "access-control"}, rsp.HeaderValues("Dav"))
	assert.Equal(t, "a", rsp.HeaderValue("x-seq"))
	assert.Equal(t, "", rsp.HeaderValue("missing"))
}
