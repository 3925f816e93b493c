package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xxxsen/davkit/entity"
)

func NewMkcolCmd(c *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "mkcol <path>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, params []string) error {
			if err := c.Client.MakeCollection(cmd.Context(), params[0]); err != nil {
				return fmt.Errorf("mkcol failed, err:%w", err)
			}
			return nil
		},
	}
}

func NewRmCmd(c *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, params []string) error {
			for _, p := range params {
				if err := c.Client.Delete(cmd.Context(), p); err != nil {
					return fmt.Errorf("delete %s failed, err:%w", p, err)
				}
			}
			return nil
		},
	}
}

type transferArgs struct {
	overwrite bool
	depth     string
}

func NewMvCmd(c *Context) *cobra.Command {
	args := &transferArgs{}
	subc := &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, params []string) error {
			if err := c.Client.Move(cmd.Context(), params[0], params[1], args.overwrite); err != nil {
				return fmt.Errorf("move failed, err:%w", err)
			}
			return nil
		},
	}
	subc.Flags().BoolVarP(&args.overwrite, "overwrite", "f", false, "replace an existing destination")
	return subc
}

func NewCpCmd(c *Context) *cobra.Command {
	args := &transferArgs{}
	subc := &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, params []string) error {
			depth, err := parseDepth(args.depth)
			if err != nil {
				return err
			}
			if err := c.Client.Copy(cmd.Context(), params[0], params[1], args.overwrite, depth); err != nil {
				return fmt.Errorf("copy failed, err:%w", err)
			}
			return nil
		},
	}
	subc.Flags().BoolVarP(&args.overwrite, "overwrite", "f", false, "replace an existing destination")
	subc.Flags().StringVarP(&args.depth, "depth", "d", "infinity", "0 copies a collection without members")
	return subc
}

type lockArgs struct {
	owner   string
	timeout int64
	depth   string
}

func NewLockCmd(c *Context) *cobra.Command {
	args := &lockArgs{}
	subc := &cobra.Command{
		Use:   "lock <path>",
		Short: "Take an exclusive write lock and print its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, params []string) error {
			depth, err := parseDepth(args.depth)
			if err != nil {
				return err
			}
			token, err := c.Client.Lock(cmd.Context(), params[0], args.owner, depth, args.timeout)
			if err != nil {
				return fmt.Errorf("lock failed, err:%w", err)
			}
			fmt.Printf("%s\ttimeout:%d\towner:%s\n", token.Token, token.Timeout, token.Owner)
			return nil
		},
	}
	subc.Flags().StringVar(&args.owner, "owner", "", "lock owner")
	subc.Flags().Int64Var(&args.timeout, "timeout", 0, "seconds, 0 lets the server decide")
	subc.Flags().StringVarP(&args.depth, "depth", "d", "0", "0 or infinity")
	return subc
}

func NewUnlockCmd(c *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <path> <token>",
		Short: "Release a lock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, params []string) error {
			token := &entity.LockToken{Path: params[0], Token: params[1]}
			if err := c.Client.Unlock(cmd.Context(), token); err != nil {
				return fmt.Errorf("unlock failed, err:%w", err)
			}
			return nil
		},
	}
}

var capabilityNames = []struct {
	flag entity.Capability
	name string
}{
	{entity.CapDAVClass1, "class1"},
	{entity.CapDAVClass2, "class2"},
	{entity.CapDAVClass3, "class3"},
	{entity.CapExecutable, "executable"},
	{entity.CapDAVACL, "access-control"},
	{entity.CapVersionControl, "version-control"},
	{entity.CapActivity, "activity"},
	{entity.CapWorkspace, "workspace"},
	{entity.CapUpdate, "update"},
	{entity.CapLabel, "label"},
	{entity.CapWorkingResource, "working-resource"},
	{entity.CapMerge, "merge"},
	{entity.CapBaseline, "baseline"},
	{entity.CapVersionHistory, "version-history"},
	{entity.CapVersionControlledCollection, "version-controlled-collection"},
	{entity.CapExtendedMkcol, "extended-mkcol"},
}

func describeCapabilities(caps entity.Capability) string {
	names := make([]string, 0, len(capabilityNames))
	for _, item := range capabilityNames {
		if caps.Has(item.flag) {
			names = append(names, item.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func NewOptionsCmd(c *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "options [path]",
		Short: "Show what the server supports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, params []string) error {
			p := "/"
			if len(params) > 0 {
				p = params[0]
			}
			return onRunOptions(cmd.Context(), c, p)
		},
	}
}

func onRunOptions(ctx context.Context, c *Context, p string) error {
	caps, err := c.Client.Options(ctx, p)
	if err != nil {
		return fmt.Errorf("options failed, err:%w", err)
	}
	fmt.Println(describeCapabilities(caps))
	return nil
}

func init() {
	register(NewMkcolCmd)
	register(NewRmCmd)
	register(NewMvCmd)
	register(NewCpCmd)
	register(NewLockCmd)
	register(NewUnlockCmd)
	register(NewOptionsCmd)
}
