package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/echobeat/catalog-seeder/internal/app"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	// openApp is swapped in tests.
	openApp func(cmd *cobra.Command, opts app.Options) (*app.App, error)
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		openApp: func(cmd *cobra.Command, opts app.Options) (*app.App, error) {
			return app.New(cmd.Context(), opts)
		},
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withApp opens the application for one command. The schema is migrated on
// every open; writers also take the run lock.
func (c *commandContext) withApp(cmd *cobra.Command, opts app.Options, fn func(*app.App) error) error {
	opts.ConfigPath = c.configPath()
	opts.Migrate = true
	a, err := c.openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	a.ServeMetrics(cmd.Context())
	return fn(a)
}
