package config

import (
	"errors"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePreload(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validatePreload() error {
	if c.Preload.LookaheadMillis < 0 {
		return errors.New("preload.lookahead_ms must not be negative")
	}
	if c.Preload.MaxCacheMiB <= 0 {
		return errors.New("preload.max_cache_mib must be positive")
	}
	if c.Preload.RenderCooldownMilli < 0 {
		return errors.New("preload.render_cooldown_ms must not be negative")
	}
	if c.Preload.PollIntervalMillis <= 0 {
		return errors.New("preload.poll_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.SoftwareThreads <= 0 {
		return errors.New("ffmpeg.software_threads must be positive")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return errors.New("ffmpeg.crf must be between 0 and 51")
	}
	return nil
}
