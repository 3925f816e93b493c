package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/entity"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type putArgs struct {
	dir string
}

func NewPutCmd(c *Context) *cobra.Command {
	args := &putArgs{}
	subc := &cobra.Command{
		Use:   "put <file>...",
		Short: "Upload files into a remote collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			return onRunPut(cmd.Context(), c, files, args)
		},
	}
	subc.Flags().StringVarP(&args.dir, "dir", "d", "/", "remote collection")
	return subc
}

func putOne(ctx context.Context, c *Context, src string, dst string) error {
	start := time.Now()
	t := c.Client.Upload(ctx, src, dst)
	var size int64
	for ev := range t.Events() {
		if ev.Kind == entity.EventStarted && ev.TotalBytes != nil {
			size = *ev.TotalBytes
		}
	}
	if err := t.Err(); err != nil {
		logutil.GetLogger(ctx).Error("upload file failed", zap.Error(err), zap.String("file", src))
		return fmt.Errorf("upload file:%s failed, err:%w", src, err)
	}
	logutil.GetLogger(ctx).Info("upload file succ", zap.String("file", src), zap.String("remote", dst),
		zap.String("size", humanize.IBytes(uint64(size))), zap.Duration("cost", time.Since(start)))
	return nil
}

func onRunPut(ctx context.Context, c *Context, files []string, args *putArgs) error {
	eg, subctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.Config.Thread)
	for _, f := range files {
		src := f
		dst := remoteJoin(args.dir, filepath.Base(src))
		eg.Go(func() error {
			return putOne(subctx, c, src, dst)
		})
	}
	return eg.Wait()
}

func init() {
	register(NewPutCmd)
}
