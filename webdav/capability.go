package webdav

import (
	"strings"

	"github.com/xxxsen/davkit/entity"
)

var capabilityTokens = map[string]entity.Capability{
	"1":                                    entity.CapDAVClass1,
	"2":                                    entity.CapDAVClass2,
	"3":                                    entity.CapDAVClass3,
	"<http://apache.org/dav/propset/fs/1>": entity.CapExecutable,
	"access-control":                       entity.CapDAVACL,
	"version-control":                      entity.CapVersionControl,
	"activity":                             entity.CapActivity,
	"workspace":                            entity.CapWorkspace,
	"update":                               entity.CapUpdate,
	"label":                                entity.CapLabel,
	"working-resource":                     entity.CapWorkingResource,
	"merge":                                entity.CapMerge,
	"baseline":                             entity.CapBaseline,
	"version-history":                      entity.CapVersionHistory,
	"version-controlled-collection":        entity.CapVersionControlledCollection,
	"extended-mkcol":                       entity.CapExtendedMkcol,
}

// ParseCapabilities folds every DAV header value into one bitmask. Unknown
// tokens are ignored.
func ParseCapabilities(values []string) entity.Capability {
	var caps entity.Capability
	for _, v := range values {
		for _, token := range strings.Split(v, ",") {
			token = strings.ToLower(strings.TrimSpace(token))
			if c, ok := capabilityTokens[token]; ok {
				caps |= c
			}
		}
	}
	return caps
}

func LegacyCapabilities(caps entity.Capability) *entity.ServerCapabilities {
	return &entity.ServerCapabilities{
		DAVClass1:     caps.Has(entity.CapDAVClass1),
		DAVClass2:     caps.Has(entity.CapDAVClass2),
		DAVExecutable: caps.Has(entity.CapExecutable),
	}
}
