package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type lsArgs struct {
	depth string
}

func NewLsCmd(c *Context) *cobra.Command {
	args := &lsArgs{}
	subc := &cobra.Command{
		Use:   "ls <path>",
		Short: "List a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, params []string) error {
			return onRunLs(cmd.Context(), c, params[0], args)
		},
	}
	subc.Flags().StringVarP(&args.depth, "depth", "d", "1", "listing depth: 0, 1 or infinity")
	return subc
}

func onRunLs(ctx context.Context, c *Context, p string, args *lsArgs) error {
	depth, err := parseDepth(args.depth)
	if err != nil {
		return err
	}
	rs, err := c.Client.List(ctx, p, depth)
	if err != nil {
		return fmt.Errorf("list failed, err:%w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	for _, r := range rs {
		kind := "-"
		if r.IsCollection {
			kind = "d"
		}
		size := "-"
		if r.ContentLength != nil {
			size = humanize.IBytes(uint64(*r.ContentLength))
		}
		mtime := "-"
		if r.LastModified != nil {
			mtime = r.LastModified.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", kind, size, mtime, r.StatusCode, r.Path)
	}
	return nil
}

func init() {
	register(NewLsCmd)
}
