package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"huecli/internal/linker"
	"huecli/internal/scenes"
)

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:     "hue",
		Short:   "Control Philips Hue lights from the terminal",
		Version: version,
		// Anything that is not a known verb lands here and prints usage.
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return &ExitError{Code: 1}
		},
	}
	root.SetOut(app.Stderr)
	root.SetErr(app.Stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	addGlobalFlags(root.PersistentFlags(), app)

	root.AddCommand(
		newSetupCmd(app),
		newLightCmd(app),
		newSceneCmd(app),
		newSwitchCmd(app, true),
		newSwitchCmd(app, false),
	)
	return root
}

// addGlobalFlags registers the settings every verb shares. Each one falls
// back to an environment variable when the flag is not given.
func addGlobalFlags(fs *pflag.FlagSet, app *App) {
	fs.StringVar(&app.configPath, "config", envOr("HUE_CONFIG", ""), "config file (default ~/.hue)")
	fs.StringVar(&app.logLevel, "log-level", envOr("HUE_LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	fs.StringVar(&app.logFormat, "log-format", envOr("HUE_LOG_FORMAT", "text"), "log format: text or json")
	fs.BoolVar(&app.noColor, "no-color", envOr("NO_COLOR", "") != "", "disable colored log output")
}

func newSetupCmd(app *App) *cobra.Command {
	var (
		list  bool
		ip    string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Find and link a Hue bridge",
		Long: `Find a Hue bridge on the network and link with it.

Press the link button on the bridge before running setup. If linking
fails, press the button and run setup again; the bridge address found
the first time is reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return app.listBridges(cmd.Context())
			}
			return app.setupBridge(cmd.Context(), linker.SetupOptions{Address: ip, Force: force})
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list bridges on the network")
	cmd.Flags().StringVarP(&ip, "ip", "i", "", "link the bridge at this address (default: first one found)")
	cmd.Flags().BoolVar(&force, "force", false, "discover and link again even if already configured")
	return cmd
}

func newLightCmd(app *App) *cobra.Command {
	var (
		list    bool
		set     bool
		details bool
		id      string
		state   string
	)
	cmd := &cobra.Command{
		Use:     "light",
		Aliases: []string{"l", "lights"},
		Short:   "List lights or set the state of one light",
		Example: `  hue light --list
  hue light --set --id 3 --state '{"on":true,"bri":200}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list && set {
				return errors.New("--list and --set cannot be used together")
			}
			if details && !list {
				return errors.New("--details requires --list")
			}
			if list {
				return app.listLights(cmd.Context(), details)
			}
			return app.setLight(cmd.Context(), id, state)
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list lights with their current state")
	cmd.Flags().BoolVarP(&set, "set", "s", false, "set the state of a light (default action)")
	cmd.Flags().BoolVar(&details, "details", false, "with --list, show model and color capabilities")
	cmd.Flags().StringVar(&id, "id", "", "light id")
	cmd.Flags().StringVar(&state, "state", "", "light state as JSON")
	return cmd
}

func newSceneCmd(app *App) *cobra.Command {
	var (
		list   bool
		create bool
		max    int
	)
	cmd := &cobra.Command{
		Use:     "scene [name...]",
		Aliases: []string{"s"},
		Short:   "Recall, list or create scenes",
		Long: `Recall the scene whose name best matches the given words.

Matching ignores case and accents. Shorter names that contain the words
win; ties go to the most recently updated scene.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			switch {
			case list:
				return app.listScenes(cmd.Context(), name, max)
			case create:
				return app.createScene(cmd.Context(), name)
			default:
				return app.activateScene(cmd.Context(), name)
			}
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list matching scenes")
	cmd.Flags().IntVarP(&max, "max", "m", scenes.DefaultMax, "maximum number of scenes to list")
	cmd.Flags().BoolVarP(&create, "create", "c", false, "create a scene from the current state of all lights")
	return cmd
}

func newSwitchCmd(app *App, on bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "off",
		Aliases: []string{"o"},
		Short:   "Switch all lights off",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.switchLights(cmd.Context(), on)
		},
	}
	if on {
		cmd.Use = "on"
		cmd.Aliases = []string{"i"}
		cmd.Short = "Switch all lights on"
	}
	return cmd
}
