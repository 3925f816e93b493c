package property

import (
	"context"

	"github.com/xxxsen/davkit/entity"
)

type IPropertyEngine interface {
	List(ctx context.Context, path string, depth entity.Depth) ([]*entity.Resource, error)
}
