package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/mapimage/internal/app"
	"github.com/kiesman99/mapimage/internal/bootstrap"
	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/pkg/worldfile"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mapimage",
	Short: "Georeference an image over a draggable map polygon",
	Long: `mapimage loads an image, derives a pixel projection from its size and
stretches it over the bounding box of a polygon on a web mercator map.

Without a subcommand it prints the georeferencing for the given bbox and can
copy the image next to a world file. The serve subcommand keeps the overlay
alive behind an HTTP API that map clients drag the polygon through.

Examples:
  # Print the display extent of cat.png over a 20 degree square
  mapimage --image cat.png --bbox 0,0,20,20

  # Shift the polygon one degree east before printing
  mapimage --image cat.png --bbox 0,0,20,20 --offset 1,0

  # Write the image and a world file for it
  mapimage --image https://example.com/cat.png --bbox 5,5,25,25 -o cat.png -w

  # Start HTTP server
  mapimage serve --image cat.png --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("image") == "" {
			return cmd.Help()
		}
		return runInspect(cmd, args)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mapimage.yaml)")
	rootCmd.PersistentFlags().StringP("image", "i", "", "image source: file path, http(s) URL or data URL")
	rootCmd.PersistentFlags().String("bbox", "0,0,20,20", "initial polygon bbox as 'min-lon,min-lat,max-lon,max-lat'")
	rootCmd.PersistentFlags().Duration("load-timeout", bootstrap.DefaultTimeout, "maximum wait for the image to load")
	rootCmd.PersistentFlags().String("user-agent", bootstrap.DefaultUserAgent, "HTTP User-Agent header for image downloads")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json|console)")

	// Output options
	rootCmd.Flags().StringP("output", "o", "", "copy the loaded image to this file")
	rootCmd.Flags().BoolP("worldfile", "w", false, "write world file next to --output")
	rootCmd.Flags().String("offset", "", "move the polygon by 'dx,dy' degrees before printing")

	// Bind flags to viper
	viper.BindPFlag("image", rootCmd.PersistentFlags().Lookup("image"))
	viper.BindPFlag("bbox", rootCmd.PersistentFlags().Lookup("bbox"))
	viper.BindPFlag("load-timeout", rootCmd.PersistentFlags().Lookup("load-timeout"))
	viper.BindPFlag("user-agent", rootCmd.PersistentFlags().Lookup("user-agent"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("worldfile", rootCmd.Flags().Lookup("worldfile"))
	viper.BindPFlag("offset", rootCmd.Flags().Lookup("offset"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".mapimage" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mapimage")
	}

	viper.SetEnvPrefix("mapimage")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	configErr := viper.ReadInConfig()

	if err := log.Setup(viper.GetString("log.level"), viper.GetString("log.format")); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to set up logging:", err)
	}
	if configErr == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configFromViper collects the application config shared by all commands
func configFromViper() (app.Config, error) {
	cfg := app.DefaultConfig()
	cfg.Image = viper.GetString("image")
	cfg.LoadTimeout = viper.GetDuration("load-timeout")
	cfg.UserAgent = viper.GetString("user-agent")

	bbox, err := app.ParseBbox(viper.GetString("bbox"))
	if err != nil {
		return cfg, err
	}
	cfg.Bbox = bbox

	return cfg, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := configFromViper()
	if err != nil {
		return err
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if offset := viper.GetString("offset"); offset != "" {
		dx, dy, err := app.ParseOffset(offset)
		if err != nil {
			return err
		}
		if err := application.Nudge(dx, dy); err != nil {
			return err
		}
	}

	snap := application.Snapshot()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "==Image: %s (%s, %dx%d)\n", snap.Source, snap.Format, snap.Width, snap.Height)
	fmt.Fprintf(out, "==Pixel Projection: %s %s\n", snap.Projection.Code, snap.Projection.Extent)
	if snap.Bbox != nil {
		fmt.Fprintf(out, "==Geodetic Bounds  (EPSG:4326): %s\n", *snap.Bbox)
	}
	fmt.Fprintf(out, "==Projected Bounds (EPSG:3857): %s\n", snap.DisplayExtent)

	px, py := worldfile.PixelSize(snap.DisplayExtent, snap.Width, snap.Height)
	fmt.Fprintf(out, "==Pixel Size: x:%.17g y:%.17g\n", px, py)

	output := viper.GetString("output")
	if output != "" {
		if err := os.WriteFile(output, application.Image().Data, 0o644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Image written to '%s'.\n", output)
	}

	if viper.GetBool("worldfile") {
		name, err := worldfile.Write(output, snap.Format, snap.DisplayExtent, snap.Width, snap.Height)
		if err != nil {
			return fmt.Errorf("failed to write world file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "World file written to '%s'.\n", name)
	}

	return nil
}
