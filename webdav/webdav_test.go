package webdav

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
)

func TestBuildPropfind(t *testing.T) {
	raw, err := BuildPropfind()
	require.NoError(t, err)
	body := string(raw)
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, `<propfind xmlns="DAV:"><prop>`)
	for _, name := range DefaultProps {
		assert.Contains(t, body, "<"+name+">")
	}

	raw, err = BuildPropfind("getetag")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<prop><getetag></getetag></prop>")
}

func TestBuildLockInfo(t *testing.T) {
	raw, err := BuildLockInfo("")
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `<lockinfo xmlns="DAV:">`)
	assert.Contains(t, body, "<lockscope><exclusive></exclusive></lockscope>")
	assert.Contains(t, body, "<locktype><write></write></locktype>")
	assert.NotContains(t, body, "owner")

	raw, err = BuildLockInfo("a&b")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<owner>a&amp;b</owner>")
}

func TestBuildACL(t *testing.T) {
	raw, err := BuildACL(nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `<acl xmlns="DAV:"></acl>`)

	raw, err = BuildACL([]*entity.ACLRule{
		{Target: entity.HrefTarget("/principals/alice"), Operation: entity.ACLGrant, Privileges: entity.PrivWriteACL | entity.PrivRead},
		{Target: entity.PropertyTarget("owner"), Operation: entity.ACLDeny, Privileges: entity.PrivWrite},
		{Target: entity.AllTarget(), Operation: entity.ACLGrant, Privileges: entity.PrivReadCurrentUserPrivilegeSet},
		{Target: entity.AuthenticatedTarget(), Operation: entity.ACLGrant, Privileges: entity.PrivBind},
		{Target: entity.UnauthenticatedTarget(), Operation: entity.ACLDeny, Privileges: entity.PrivAll},
		{Target: entity.SelfTarget(), Operation: entity.ACLGrant, Privileges: entity.PrivUnlock},
	})
	require.NoError(t, err)
	body := string(raw)
	expect := []string{
		"<ace><principal><href>/principals/alice</href></principal><grant><privilege><read></read></privilege><privilege><write-acl></write-acl></privilege></grant></ace>",
		"<ace><principal><property><owner></owner></property></principal><deny><privilege><write></write></privilege></deny></ace>",
		"<ace><principal><all></all></principal><grant><privilege><read-current-user-privilege-set></read-current-user-privilege-set></privilege></grant></ace>",
		"<ace><principal><authenticated></authenticated></principal><grant><privilege><bind></bind></privilege></grant></ace>",
		"<ace><principal><unauthenticated></unauthenticated></principal><deny><privilege><all></all></privilege></deny></ace>",
		"<ace><principal><self></self></principal><grant><privilege><unlock></unlock></privilege></grant></ace>",
	}
	last := -1
	for _, item := range expect {
		idx := strings.Index(body, item)
		assert.Greater(t, idx, last, item)
		last = idx
	}

	_, err = BuildACL([]*entity.ACLRule{{Target: entity.ACLTarget{Kind: 99}}})
	assert.Error(t, err)
	_, err = BuildACL([]*entity.ACLRule{nil})
	assert.Error(t, err)
}

func TestPrivilegeNames(t *testing.T) {
	assert.Equal(t, []string{"read", "write", "all"}, PrivilegeNames(entity.PrivAll|entity.PrivWrite|entity.PrivRead))
	assert.Empty(t, PrivilegeNames(0))
}

const sampleMultistatus = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:">
  <D:response>
    <D:href>/demo/</D:href>
    <D:propstat>
      <D:prop>
        <D:displayname>demo</D:displayname>
        <D:resourcetype><D:collection/></D:resourcetype>
      </D:prop>
      <D:status>HTTP/1.1 200 OK</D:status>
    </D:propstat>
    <D:propstat>
      <D:prop><D:getcontentlength/></D:prop>
      <D:status>HTTP/1.1 404 Not Found</D:status>
    </D:propstat>
  </D:response>
  <D:response>
    <D:href>/demo/hello.txt</D:href>
    <D:propstat>
      <D:prop>
        <D:getetag>abc</D:getetag>
        <D:getcontentlength>5</D:getcontentlength>
        <D:getlastmodified>Mon, 02 Jan 2006 15:04:05 GMT</D:getlastmodified>
        <D:resourcetype/>
      </D:prop>
      <D:status>HTTP/1.1 200 OK</D:status>
    </D:propstat>
  </D:response>
</D:multistatus>`

func TestDecodeMultistatus(t *testing.T) {
	ms, err := DecodeMultistatus([]byte(sampleMultistatus))
	require.NoError(t, err)
	require.Len(t, ms.Responses, 2)

	dir := ms.Responses[0]
	assert.Equal(t, "/demo/", dir.Href)
	require.Len(t, dir.Propstats, 2)
	assert.Equal(t, "demo", *dir.Propstats[0].Prop.DisplayName)
	assert.NotNil(t, dir.Propstats[0].Prop.ResourceType.Collection)
	assert.Nil(t, dir.Propstats[0].Prop.ETag)
	assert.Equal(t, 404, ParseStatusLine(dir.Propstats[1].Status))

	file := ms.Responses[1]
	prop := file.Propstats[0].Prop
	assert.Equal(t, "abc", *prop.ETag)
	assert.Equal(t, "5", *prop.ContentLength)
	assert.NotNil(t, prop.ResourceType)
	assert.Nil(t, prop.ResourceType.Collection)
	assert.Nil(t, prop.DisplayName)

	_, err = DecodeMultistatus([]byte("not xml"))
	assert.Error(t, err)
}

func TestDecodeLockDiscovery(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<D:prop xmlns:D="DAV:"><D:lockdiscovery><D:activelock>
<D:locktype><D:write/></D:locktype><D:lockscope><D:exclusive/></D:lockscope>
<D:depth>infinity</D:depth>
<D:owner>sample</D:owner>
<D:timeout>Second-3600</D:timeout>
<D:locktoken><D:href>opaquelocktoken:1234</D:href></D:locktoken>
<D:lockroot><D:href>/demo/hello.txt</D:href></D:lockroot>
</D:activelock></D:lockdiscovery></D:prop>`
	ld, err := DecodeLockDiscovery([]byte(body))
	require.NoError(t, err)
	require.Len(t, ld.ActiveLocks, 1)
	al := ld.ActiveLocks[0]
	assert.Equal(t, "sample", al.Owner.Value())
	assert.Equal(t, "Second-3600", al.Timeout)
	assert.Equal(t, "opaquelocktoken:1234", al.LockToken.Href)
	assert.Equal(t, "/demo/hello.txt", al.LockRoot.Href)

	owner := &LockOwner{Href: "mailto:a@b", Text: "  "}
	assert.Equal(t, "mailto:a@b", owner.Value())
	var none *LockOwner
	assert.Equal(t, "", none.Value())
}

func TestParseStatusLine(t *testing.T) {
	assert.Equal(t, 404, ParseStatusLine("HTTP/1.1 404 Not Found"))
	assert.Equal(t, 200, ParseStatusLine(" HTTP/1.1 200 OK "))
	assert.Equal(t, 0, ParseStatusLine("garbage"))
	assert.Equal(t, 0, ParseStatusLine("HTTP/1.1 abc"))
	assert.Equal(t, 0, ParseStatusLine(""))
}

func TestParseTimeout(t *testing.T) {
	v, ok := ParseTimeout("Second-3600")
	assert.True(t, ok)
	assert.Equal(t, int64(3600), v)
	v, ok = ParseTimeout("Infinite")
	assert.True(t, ok)
	assert.Equal(t, int64(0), v)
	v, ok = ParseTimeout("Infinite, Second-10")
	assert.True(t, ok)
	assert.Equal(t, int64(0), v)
	_, ok = ParseTimeout("Second-x")
	assert.False(t, ok)
	_, ok = ParseTimeout("")
	assert.False(t, ok)
}

func TestCheckMultistatus(t *testing.T) {
	assert.NoError(t, CheckMultistatus(nil))
	assert.NoError(t, CheckMultistatus([]byte("plain text")))
	body := `<D:multistatus xmlns:D="DAV:">
<D:response><D:href>/a</D:href><D:status>HTTP/1.1 204 No Content</D:status></D:response>
<D:response><D:href>/a/locked</D:href><D:status>HTTP/1.1 423 Locked</D:status></D:response>
</D:multistatus>`
	err := CheckMultistatus([]byte(body))
	require.Error(t, err)
	assert.Equal(t, 423, errs.StatusOf(err))
	assert.Contains(t, err.Error(), "/a/locked")
}

func TestParseHTTPDate(t *testing.T) {
	ts := ParseHTTPDate("Mon, 02 Jan 2006 15:04:05 GMT")
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, time.UTC, ts.Location())
	assert.Nil(t, ParseHTTPDate(""))
	assert.Nil(t, ParseHTTPDate("2006-01-02T15:04:05Z"))

	ts = ParseHTTPDate("Mon, 02 Jan 2006 15:04:05 UTC")
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)))
	ts = ParseHTTPDate("Mon, 02 Jan 2006 15:04:05 -0800")
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(time.Date(2006, 1, 2, 23, 4, 5, 0, time.UTC)))
	// a zone name that cannot be resolved must not turn into UTC
	assert.Nil(t, ParseHTTPDate("Mon, 02 Jan 2006 15:04:05 PST"))
	assert.Nil(t, ParseHTTPDate("Mon, 02 Jan 2006 15:04:05 CET"))
}

func TestParseCapabilities(t *testing.T) {
	caps := ParseCapabilities([]string{"1, 2", "access-control, extended-mkcol", "<http://apache.org/dav/propset/fs/1>", "bogus"})
	assert.True(t, caps.Has(entity.CapDAVClass1))
	assert.True(t, caps.Has(entity.CapDAVClass2))
	assert.False(t, caps.Has(entity.CapDAVClass3))
	assert.True(t, caps.Has(entity.CapDAVACL))
	assert.True(t, caps.Has(entity.CapExtendedMkcol))
	assert.True(t, caps.Has(entity.CapExecutable))
	assert.Equal(t, entity.Capability(0), ParseCapabilities(nil))

	legacy := LegacyCapabilities(caps)
	assert.True(t, legacy.DAVClass1)
	assert.True(t, legacy.DAVClass2)
	assert.True(t, legacy.DAVExecutable)
}
