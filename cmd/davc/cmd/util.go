package cmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/xxxsen/davkit/entity"
)

func parseDepth(v string) (entity.Depth, error) {
	switch strings.ToLower(v) {
	case "0":
		return entity.DepthZero, nil
	case "1":
		return entity.DepthOne, nil
	case "infinity", "inf":
		return entity.DepthInfinite, nil
	}
	return entity.DepthZero, fmt.Errorf("invalid depth:%s", v)
}

func remoteJoin(dir string, name string) string {
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	return path.Join(dir, name)
}
