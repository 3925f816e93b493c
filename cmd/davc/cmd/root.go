package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/davkit/config"
	"github.com/xxxsen/davkit/davc"
	"go.uber.org/zap"
)

const (
	defaultConfigFileEnv = "DAVC_CONFIG"
	defaultConfigFile    = "/etc/davc/davc_config.json"
)

var cmds []CreateFunc

type Context struct {
	Client *davc.Client
	Config *config.Config
}

type CreateFunc func(ctx *Context) *cobra.Command

func register(cr CreateFunc) {
	cmds = append(cmds, cr)
}

func loadConfig(cfgs []string) (*config.Config, error) {
	var lastErr error = fmt.Errorf("no config file given")
	for _, cfg := range cfgs {
		if len(cfg) == 0 {
			continue
		}
		c, err := config.Parse(cfg)
		if err != nil {
			lastErr = err
			continue
		}
		return c, nil
	}
	return nil, fmt.Errorf("no valid config file found, last err:%w", lastErr)
}

func buildOptions(c *config.Config) ([]davc.Option, error) {
	opts := []davc.Option{
		davc.WithConnectTimeout(c.ConnectTimeoutDuration()),
		davc.WithReadTimeout(c.ReadTimeoutDuration()),
	}
	if len(c.Username) > 0 {
		opts = append(opts, davc.WithCredentials(c.Username, c.Password))
	}
	if len(c.UserAgent) > 0 {
		opts = append(opts, davc.WithUserAgent(c.UserAgent))
	}
	host, port, err := c.ProxyAddr()
	if err != nil {
		return nil, err
	}
	if len(host) > 0 {
		opts = append(opts, davc.WithProxy(host, port))
	}
	if c.ListCache.Size > 0 {
		opts = append(opts, davc.WithListCache(c.ListCache.Size, c.ListCacheTTL()), davc.WithListCacheKind(c.ListCache.Kind))
	}
	if c.ChunkSize > 0 {
		opts = append(opts, davc.WithTransferChunkSize(c.ChunkSize))
	}
	return opts, nil
}

func initContext(ctx *Context, cfgs []string) error {
	c, err := loadConfig(cfgs)
	if err != nil {
		return err
	}
	ctx.Config = c
	li := c.LogInfo
	lg := logger.Init(li.File, li.Level, int(li.FileCount), int(li.FileSize), int(li.KeepDays), li.Console)
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	cli, err := davc.New(c.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("create client failed, err:%w", err)
	}
	lg.Debug("client created", zap.String("base_url", c.BaseURL), zap.Int("thread", c.Thread))
	ctx.Client = cli
	return nil
}

func (c *Context) release() {
	if c.Client != nil {
		c.Client.Release()
	}
}

func NewRoot() *cobra.Command {
	return newRoot(&Context{})
}

func newRoot(ctx *Context) *cobra.Command {
	var configFile string
	var rootCmd = &cobra.Command{
		Use:           "davc",
		Short:         "WebDAV CLI tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, cr := range cmds {
		sub := cr(ctx)
		// PersistentPostRun is skipped when RunE fails, release here instead
		if runE := sub.RunE; runE != nil {
			sub.RunE = func(cmd *cobra.Command, args []string) error {
				defer ctx.release()
				return runE(cmd, args)
			}
		}
		rootCmd.AddCommand(sub)
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		envConfigFile, _ := os.LookupEnv(defaultConfigFileEnv)
		return initContext(ctx, []string{configFile, defaultConfigFile, envConfigFile})
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	return rootCmd
}
