package cmd

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/entity"
	"go.uber.org/zap"
)

type getArgs struct {
	output string
}

func NewGetCmd(c *Context) *cobra.Command {
	args := &getArgs{}
	subc := &cobra.Command{
		Use:   "get <remote>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, params []string) error {
			return onRunGet(cmd.Context(), c, params[0], args)
		},
	}
	subc.Flags().StringVarP(&args.output, "output", "o", "", "local file, defaults to the remote file name")
	return subc
}

func onRunGet(ctx context.Context, c *Context, remote string, args *getArgs) error {
	dst := args.output
	if len(dst) == 0 {
		dst = path.Base(remote)
	}
	start := time.Now()
	t := c.Client.Download(ctx, remote, dst)
	var size int64
	for ev := range t.Events() {
		if ev.Kind == entity.EventProgress {
			size = ev.CompletedBytes
		}
	}
	if err := t.Err(); err != nil {
		return fmt.Errorf("download file failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("download file succ", zap.String("remote", remote), zap.String("local", dst),
		zap.String("size", humanize.IBytes(uint64(size))), zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewGetCmd)
}
