package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/banishd/internal/config"
	"github.com/bnema/banishd/internal/daemon"
	"github.com/bnema/banishd/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	flagDebug  bool
	configPath string

	rootCmd = &cobra.Command{
		Use:   "banishd",
		Short: "Banishd - hide the cursor while you type",
		Long: `Banishd is a daemon for X11 sessions that hides the pointer cursor
while the user is typing and brings it back on pointer motion. Input
devices are watched through udev, so keyboards and mice keep working
as they are plugged and unplugged.`,
		SilenceUsage: true,
		RunE:         runDaemon,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	f := rootCmd.Flags()
	f.BoolP("always-hide", "a", false, "hide the cursor at startup and never unhide on input")
	f.IntP("count", "c", 1, "number of keystrokes before the cursor hides")
	f.StringArrayP("ignore", "i", nil, "modifier whose held state suppresses keystroke counting (repeatable): shift|lock|control|mod1..mod5|all")
	f.IntP("jitter", "j", 0, "pixels of pointer motion to ignore while hidden")
	f.StringP("move", "m", "", "warp the pointer when hiding: nw|ne|sw|se|wnw|wne|wsw|wse or an offset like +10-20")
	f.IntP("timeout", "t", 0, "seconds of inactivity before the cursor hides")
	f.BoolP("ignore-scroll", "s", false, "do not unhide on scroll events")

	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	// Bind flags to viper
	viper.BindPFlag("hide.always_hide", f.Lookup("always-hide"))
	viper.BindPFlag("hide.keystroke_threshold", f.Lookup("count"))
	viper.BindPFlag("hide.ignored_modifiers", f.Lookup("ignore"))
	viper.BindPFlag("hide.jitter", f.Lookup("jitter"))
	viper.BindPFlag("hide.relocate", f.Lookup("move"))
	viper.BindPFlag("hide.idle_timeout", f.Lookup("timeout"))
	viper.BindPFlag("hide.ignore_scroll", f.Lookup("ignore-scroll"))
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	if cfg.Logging.LogLevel != "" {
		logger.SetLevel(cfg.Logging.LogLevel)
	}
	logger.SetDebug(flagDebug)

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}
