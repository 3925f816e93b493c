package webdav

import (
	"encoding/xml"
	"strings"
)

// Multistatus 是 207 响应的根结构
type Multistatus struct {
	XMLName             xml.Name    `xml:"DAV: multistatus"`
	Responses           []*Response `xml:"DAV: response"`
	ResponseDescription string      `xml:"DAV: responsedescription"`
}

// Response 对应一个资源, 属性按 propstat 分组
type Response struct {
	Href                string      `xml:"DAV: href"`
	Status              string      `xml:"DAV: status"`
	Propstats           []*Propstat `xml:"DAV: propstat"`
	ResponseDescription string      `xml:"DAV: responsedescription"`
}

type Propstat struct {
	Prop   Prop   `xml:"DAV: prop"`
	Status string `xml:"DAV: status"`
}

// Prop 只保留客户端关心的属性, 缺失的属性解码后为 nil
type Prop struct {
	DisplayName   *string        `xml:"DAV: displayname"`
	ETag          *string        `xml:"DAV: getetag"`
	ContentType   *string        `xml:"DAV: getcontenttype"`
	ContentLength *string        `xml:"DAV: getcontentlength"`
	LastModified  *string        `xml:"DAV: getlastmodified"`
	ResourceType  *ResourceType  `xml:"DAV: resourcetype"`
	LockDiscovery *LockDiscovery `xml:"DAV: lockdiscovery"`
}

type ResourceType struct {
	Collection *struct{} `xml:"DAV: collection"`
}

type LockDiscovery struct {
	ActiveLocks []*ActiveLock `xml:"DAV: activelock"`
}

type ActiveLock struct {
	Depth     string     `xml:"DAV: depth"`
	Owner     *LockOwner `xml:"DAV: owner"`
	Timeout   string     `xml:"DAV: timeout"`
	LockToken *HrefElem  `xml:"DAV: locktoken"`
	LockRoot  *HrefElem  `xml:"DAV: lockroot"`
}

type LockOwner struct {
	Href string `xml:"DAV: href"`
	Text string `xml:",chardata"`
}

// Value prefers the owner href over free text.
func (o *LockOwner) Value() string {
	if o == nil {
		return ""
	}
	if len(o.Href) > 0 {
		return o.Href
	}
	return strings.TrimSpace(o.Text)
}

type HrefElem struct {
	Href string `xml:"DAV: href"`
}

type propLockDiscovery struct {
	XMLName       xml.Name      `xml:"DAV: prop"`
	LockDiscovery LockDiscovery `xml:"DAV: lockdiscovery"`
}

// request bodies, the root carries the DAV: default namespace and children
// inherit it.

type emptyElem struct {
	XMLName xml.Name
}

func named(name string) emptyElem {
	return emptyElem{XMLName: xml.Name{Local: name}}
}

type propfindBody struct {
	XMLName xml.Name  `xml:"DAV: propfind"`
	Prop    propNames `xml:"prop"`
}

type propNames struct {
	Names []emptyElem
}

type lockInfoBody struct {
	XMLName   xml.Name   `xml:"DAV: lockinfo"`
	LockScope lockScope  `xml:"lockscope"`
	LockType  lockType   `xml:"locktype"`
	Owner     *ownerElem `xml:"owner,omitempty"`
}

type lockScope struct {
	Exclusive *struct{} `xml:"exclusive"`
}

type lockType struct {
	Write *struct{} `xml:"write"`
}

type ownerElem struct {
	Text string `xml:",chardata"`
}

type aclBody struct {
	XMLName xml.Name   `xml:"DAV: acl"`
	ACEs    []*aceElem `xml:"ace"`
}

type aceElem struct {
	Principal principalElem `xml:"principal"`
	Grant     *privSet      `xml:"grant,omitempty"`
	Deny      *privSet      `xml:"deny,omitempty"`
}

type principalElem struct {
	Href            *string       `xml:"href,omitempty"`
	Property        *propertyElem `xml:"property,omitempty"`
	All             *struct{}     `xml:"all,omitempty"`
	Authenticated   *struct{}     `xml:"authenticated,omitempty"`
	Unauthenticated *struct{}     `xml:"unauthenticated,omitempty"`
	Self            *struct{}     `xml:"self,omitempty"`
}

type propertyElem struct {
	Name emptyElem
}

type privSet struct {
	Privileges []privElem `xml:"privilege"`
}

type privElem struct {
	Priv emptyElem
}
