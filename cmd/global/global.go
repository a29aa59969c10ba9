// Package global holds the values of the root command's persistent flags.
// Subcommand packages read them from here instead of importing cmd, which
// would be an import cycle.
package global

var (
	// CfgFile overrides the config search path when set via --config.
	CfgFile string

	NoColor bool
	NoStyle bool

	// Verbose enables debug-level output; applied via ui.SetDebugEnabled
	// before any subcommand runs.
	Verbose bool
)
