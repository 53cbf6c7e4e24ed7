package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/engine"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/source"
	"github.com/aukilabs/vectorspace/store"
	"github.com/spf13/cobra"
)

var version = "v0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "vsrender: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vsrender",
		Short:         "Renders point clouds offline",
		Long:          brand.Sprint("vsrender") + " renders a point file to a PNG or SVG snapshot without a server.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("vsrender {{ .Version }}\n")

	cmd.AddCommand(
		renderCmd(),
		keysCmd(),
	)
	return cmd
}

type renderOptions struct {
	Points   string
	Settings string
	Out      string
	Format   string
}

func renderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a point file to a snapshot",
		Example: "  vsrender render --points points.json --out view.svg\n" +
			"  vsrender render --points points.yaml --settings view.toml --format png",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Points, "points", "", "JSON or YAML point file")
	flags.StringVar(&opts.Settings, "settings", "", "TOML file with the store values of the view")
	flags.StringVar(&opts.Out, "out", "snapshot.png", "Output file")
	flags.StringVar(&opts.Format, "format", "", "Snapshot format (png|svg), guessed from the output file when empty")
	cmd.MarkFlagRequired("points")
	return cmd
}

func render(cmd *cobra.Command, opts renderOptions) error {
	format := opts.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(opts.Out), ".")
	}
	if _, err := engine.Snapshotter(format); err != nil {
		return err
	}

	points, err := source.Load(opts.Points)
	if err != nil {
		return err
	}

	var values store.Memory
	if opts.Settings != "" {
		s, err := loadSettings(opts.Settings)
		if err != nil {
			return err
		}
		for _, k := range s.Unknown {
			warn.Fprintf(cmd.ErrOrStderr(), "  unknown setting %q ignored\n", k)
		}
		values.Apply(s.Changes()...)
	}
	values.Apply(store.Change{
		Key:   store.KeyPoints,
		Value: models.Records(points),
	})

	if err := snapshot(&values, opts.Out, format); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
		good.Sprint("rendered"),
		opts.Out,
		subtle.Sprintf("(%d points, %s)", len(points), format),
	)
	return nil
}

func snapshot(values *store.Memory, path, format string) (err error) {
	e, err := engine.New(engine.Config{Store: values})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); err == nil {
			err = cerr
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating output file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return e.Snapshot(f, format)
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the settings keys and their defaults",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, k := range store.Keys {
				fmt.Fprintf(w, "  %s %s\n", brand.Sprintf("%-20s", k), subtle.Sprint(models.FieldString(store.Default(k))))
			}
		},
	}
}
