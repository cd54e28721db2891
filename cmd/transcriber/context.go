package main

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

const defaultConfigPath = "config.yaml"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the config file once. A missing default file falls back
// to built-in defaults; an explicitly named file must exist.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := defaultConfigPath
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}

		if path == defaultConfigPath {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				c.config = config.Default()
				return
			}
		}

		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(out io.Writer) logger.Logger {
	cfg, _ := c.ensureConfig()
	if cfg == nil {
		cfg = config.Default()
	}
	return logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, out)
}
