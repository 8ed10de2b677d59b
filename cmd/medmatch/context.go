package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"medmatch/internal/batch"
	"medmatch/internal/catalog"
	"medmatch/internal/confidence"
	"medmatch/internal/config"
	"medmatch/internal/logging"
	"medmatch/internal/signature"
	"medmatch/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	indexOnce sync.Once
	index     *signature.Index
	indexErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// logger writes to the command's stderr and mirrors into the log directory.
// The close function releases the log file.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, func() error, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return logging.NewFromConfig(cfg, cmd.ErrOrStderr())
}

func (c *commandContext) catalogIndex() (*signature.Index, error) {
	c.indexOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.indexErr = err
			return
		}
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			c.indexErr = fmt.Errorf("load catalog: %w", err)
			return
		}
		c.index, c.indexErr = signature.Build(cat)
	})
	return c.index, c.indexErr
}

func (c *commandContext) openStore(ctx context.Context, logger *slog.Logger) (store.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg, logger)
}

func (c *commandContext) pathResolver() batch.PathResolver {
	cfg := c.configValue()
	if cfg == nil {
		return batch.NoResolver{}
	}
	switch cfg.PathResolver.Mode {
	case config.ResolverRelative:
		return batch.RelativeTo{Root: cfg.Paths.SandboxDir}
	case config.ResolverNone:
		return batch.NoResolver{}
	default:
		return batch.LastSegments{N: cfg.PathResolver.Segments}
	}
}

func scoringPolicy(cfg *config.Config) confidence.Policy {
	return confidence.Policy{
		Weights: confidence.Weights{
			Fingerprint:   cfg.Scoring.FingerprintWeight,
			Transcription: cfg.Scoring.TranscriptionWeight,
			Size:          cfg.Scoring.SizeWeight,
		},
		Threshold:     cfg.Scoring.Threshold,
		SizeTolerance: cfg.Scoring.SizeTolerance,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
