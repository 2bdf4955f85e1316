package main

import (
	"fmt"

	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/transform"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CHARTCORE"

// Config is what a command needs to build and size a chart
type Config struct {
	Viewport layout.Viewport
	Chart    chart.Options
}

// loadConfig merges the optional YAML file at path, CHARTCORE_* variables
// and flags. Chart options live under the "chart" key of the file and start
// from chart.DefaultOptions.
func loadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for _, name := range []string{"width", "height", "mode"} {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(name, flag); err != nil {
				return nil, fmt.Errorf("bind %s: %w", name, err)
			}
		}
	}

	config := &Config{Chart: chart.DefaultOptions()}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.UnmarshalKey("chart", &config.Chart); err != nil {
			return nil, fmt.Errorf("parse chart options: %w", err)
		}
	}

	config.Viewport = layout.Viewport{Width: v.GetFloat64("width"), Height: v.GetFloat64("height")}
	if config.Viewport.Empty() {
		return nil, fmt.Errorf("viewport %vx%v has no area", config.Viewport.Width, config.Viewport.Height)
	}

	if name := v.GetString("mode"); name != "" {
		mode, err := transform.ParseMode(name)
		if err != nil {
			return nil, err
		}
		config.Chart.RightPriceScale.Mode = mode
	}
	return config, nil
}
