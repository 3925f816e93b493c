package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
)

const (
	MethodPropfind  = "PROPFIND"
	MethodProppatch = "PROPPATCH"
	MethodMkcol     = "MKCOL"
	MethodCopy      = "COPY"
	MethodMove      = "MOVE"
	MethodLock      = "LOCK"
	MethodUnlock    = "UNLOCK"
	MethodACL       = "ACL"
	MethodOptions   = "OPTIONS"
)

const (
	HeaderDepth       = "Depth"
	HeaderTimeout     = "Timeout"
	HeaderLockToken   = "Lock-Token"
	HeaderDestination = "Destination"
	HeaderOverwrite   = "Overwrite"
	HeaderDAV         = "DAV"
	HeaderContentType = "Content-Type"
)

const (
	XMLContentType = `application/xml; charset="utf-8"`
)

// DefaultProps is what a listing asks for.
var DefaultProps = []string{
	"displayname",
	"getetag",
	"getcontenttype",
	"getcontentlength",
	"getlastmodified",
	"resourcetype",
}

func marshalBody(v interface{}) ([]byte, error) {
	raw, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBufferString(xml.Header)
	buf.Write(raw)
	return buf.Bytes(), nil
}

// BuildPropfind builds a PROPFIND body for the given props, DefaultProps
// when none given.
func BuildPropfind(names ...string) ([]byte, error) {
	if len(names) == 0 {
		names = DefaultProps
	}
	body := &propfindBody{}
	for _, name := range names {
		body.Prop.Names = append(body.Prop.Names, named(name))
	}
	return marshalBody(body)
}

// BuildLockInfo builds an exclusive write lock request.
func BuildLockInfo(owner string) ([]byte, error) {
	body := &lockInfoBody{
		LockScope: lockScope{Exclusive: &struct{}{}},
		LockType:  lockType{Write: &struct{}{}},
	}
	if len(owner) > 0 {
		body.Owner = &ownerElem{Text: owner}
	}
	return marshalBody(body)
}

// privilegeOrder is the order privileges are written in.
var privilegeOrder = []struct {
	bit  entity.Privilege
	name string
}{
	{entity.PrivRead, "read"},
	{entity.PrivWrite, "write"},
	{entity.PrivWriteProperties, "write-properties"},
	{entity.PrivWriteContent, "write-content"},
	{entity.PrivUnlock, "unlock"},
	{entity.PrivReadACL, "read-acl"},
	{entity.PrivReadCurrentUserPrivilegeSet, "read-current-user-privilege-set"},
	{entity.PrivWriteACL, "write-acl"},
	{entity.PrivBind, "bind"},
	{entity.PrivUnbind, "unbind"},
	{entity.PrivAll, "all"},
}

// PrivilegeNames lists the names of the bits set in p.
func PrivilegeNames(p entity.Privilege) []string {
	rs := make([]string, 0, len(privilegeOrder))
	for _, item := range privilegeOrder {
		if p&item.bit != 0 {
			rs = append(rs, item.name)
		}
	}
	return rs
}

func buildPrincipal(t entity.ACLTarget) (principalElem, error) {
	p := principalElem{}
	switch t.Kind {
	case entity.ACLTargetHref:
		v := t.Value
		p.Href = &v
	case entity.ACLTargetProperty:
		p.Property = &propertyElem{Name: named(t.Value)}
	case entity.ACLTargetAll:
		p.All = &struct{}{}
	case entity.ACLTargetAuthenticated:
		p.Authenticated = &struct{}{}
	case entity.ACLTargetUnauthenticated:
		p.Unauthenticated = &struct{}{}
	case entity.ACLTargetSelf:
		p.Self = &struct{}{}
	default:
		return p, fmt.Errorf("unknown acl target kind:%d", t.Kind)
	}
	return p, nil
}

// BuildACL builds one ACL body carrying every rule in order. No rules gives
// an empty acl element.
func BuildACL(rules []*entity.ACLRule) ([]byte, error) {
	body := &aclBody{}
	for idx, rule := range rules {
		if rule == nil {
			return nil, fmt.Errorf("nil acl rule at:%d", idx)
		}
		principal, err := buildPrincipal(rule.Target)
		if err != nil {
			return nil, err
		}
		set := &privSet{}
		for _, name := range PrivilegeNames(rule.Privileges) {
			set.Privileges = append(set.Privileges, privElem{Priv: named(name)})
		}
		ace := &aceElem{Principal: principal}
		switch rule.Operation {
		case entity.ACLGrant:
			ace.Grant = set
		case entity.ACLDeny:
			ace.Deny = set
		default:
			return nil, fmt.Errorf("unknown acl operation:%d", rule.Operation)
		}
		body.ACEs = append(body.ACEs, ace)
	}
	return marshalBody(body)
}

func DecodeMultistatus(body []byte) (*Multistatus, error) {
	ms := &Multistatus{}
	if err := xml.Unmarshal(body, ms); err != nil {
		return nil, fmt.Errorf("decode multistatus failed, err:%w", err)
	}
	return ms, nil
}

// DecodeLockDiscovery reads the prop/lockdiscovery body of a LOCK reply.
func DecodeLockDiscovery(body []byte) (*LockDiscovery, error) {
	p := &propLockDiscovery{}
	if err := xml.Unmarshal(body, p); err != nil {
		return nil, fmt.Errorf("decode lock discovery failed, err:%w", err)
	}
	return &p.LockDiscovery, nil
}

// ParseStatusLine pulls the code out of "HTTP/1.1 404 Not Found", 0 when
// the line is not one.
func ParseStatusLine(line string) int {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 || code > 999 {
		return 0
	}
	return code
}

// ParseTimeout reads a Timeout value. Infinite gives 0, ok is false when
// nothing usable is found.
func ParseTimeout(v string) (int64, bool) {
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if strings.EqualFold(item, "Infinite") {
			return 0, true
		}
		if len(item) > 7 && strings.EqualFold(item[:7], "Second-") {
			n, err := strconv.ParseInt(item[7:], 10, 64)
			if err == nil && n >= 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// CheckMultistatus walks a 207 body and fails on the first item that is
// not 2xx. Bodies that are not multistatus pass.
func CheckMultistatus(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	ms, err := DecodeMultistatus(body)
	if err != nil {
		return nil
	}
	for _, rsp := range ms.Responses {
		codes := make([]int, 0, len(rsp.Propstats)+1)
		if code := ParseStatusLine(rsp.Status); code > 0 {
			codes = append(codes, code)
		}
		for _, ps := range rsp.Propstats {
			if code := ParseStatusLine(ps.Status); code > 0 {
				codes = append(codes, code)
			}
		}
		for _, code := range codes {
			if !errs.IsSuccess(code) {
				return errs.WithStatus(errs.CodeError, code, fmt.Sprintf("%s: %s", rsp.Href, strings.TrimSpace(rsp.Status)))
			}
		}
	}
	return nil
}
