package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mihirpathak97/Rainbow/internal/app"
	"github.com/mihirpathak97/Rainbow/internal/config"
	"github.com/mihirpathak97/Rainbow/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cli struct {
	out io.Writer
	app *app.App
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	cmd := &cobra.Command{
		Use:           "rainbow [directory]",
		Short:         "Identify audio files by fingerprint and fix their metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			fingerprint, _ := cmd.Flags().GetBool("fingerprint")
			fix, _ := cmd.Flags().GetBool("fix-metadata")

			return c.app.Run(func(ctx context.Context) error {
				_, err := c.app.Scan(ctx, dir, app.ScanOptions{
					Fingerprint: fingerprint,
					FixMetadata: fix,
				})
				return err
			})
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(color.Error)

	cmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolP("fingerprint", "f", true, "Identify files by acoustic fingerprint")
	cmd.Flags().Bool("fix-metadata", false, "Write the matched title and artist into each file (also -fm)")

	cmd.AddCommand(c.cmdEmbed(), c.cmdInspect(), c.cmdSubmit())
	return cmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.App.LogLevel = level
	}

	log := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			log.WithField(f.Name, f.Value.String()).Debug("flag set")
		}
	})

	c.app = app.New(cfg, log, c.out)
	return nil
}

func (c *cli) cmdEmbed() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Write catalog metadata for one track into a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			id, _ := cmd.Flags().GetString("id")

			return c.app.Run(func(ctx context.Context) error {
				_, err := c.app.Embed(ctx, file, id)
				return err
			})
		},
	}
	cmd.Flags().String("file", "", "Path of the audio file")
	cmd.Flags().String("id", "", "Catalog ID of the track")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("id")
	return cmd
}

func (c *cli) cmdInspect() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the tags stored in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := c.app.Inspect(args[0])
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(tags)
			}

			label := color.New(color.FgCyan).SprintFunc()
			fmt.Fprintf(c.out, "%s %s\n", label("Format:      "), tags.Format)
			fmt.Fprintf(c.out, "%s %s\n", label("Title:       "), tags.Title)
			fmt.Fprintf(c.out, "%s %s\n", label("Artist:      "), tags.Artist)
			fmt.Fprintf(c.out, "%s %s\n", label("Album artist:"), tags.AlbumArtist)
			fmt.Fprintf(c.out, "%s %s\n", label("Album:       "), tags.Album)
			fmt.Fprintf(c.out, "%s %s\n", label("Genre:       "), tags.Genre)
			fmt.Fprintf(c.out, "%s %d\n", label("Year:        "), tags.Year)
			fmt.Fprintf(c.out, "%s %d/%d\n", label("Track:       "), tags.Track, tags.TrackTotal)
			fmt.Fprintf(c.out, "%s %d\n", label("Disc:        "), tags.Disc)
			fmt.Fprintf(c.out, "%s %t\n", label("Cover art:   "), tags.HasCoverArt)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

func (c *cli) cmdSubmit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Contribute a file's fingerprint to the lookup service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			mbid, _ := cmd.Flags().GetString("mbid")

			return c.app.Run(func(ctx context.Context) error {
				if err := c.app.Submit(ctx, file, mbid); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintln(c.out, "Fingerprint submitted")
				return nil
			})
		},
	}
	cmd.Flags().String("file", "", "Path of the audio file")
	cmd.Flags().String("mbid", "", "MusicBrainz recording ID to link")
	cmd.MarkFlagRequired("file")
	return cmd
}
