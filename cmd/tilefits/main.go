package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/bodgit/tilefits"
	"github.com/urfave/cli/v2"
)

const defaultDB = "tilefits.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newGenerator(c *cli.Context) (*tilefits.Generator, error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	return tilefits.New(c.String("db"), logger, c.Int("workers"))
}

func newApp(cwd string) *cli.App {
	app := cli.NewApp()

	app.Name = "tilefits"
	app.Usage = "Tiled image container fixture generator"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TILEFITS_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to manifest database",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"TILEFITS_WORKERS"},
			Value:   0,
			Usage:   "number of fixtures to write at once, 0 for the default",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "generate",
			Usage:       "Generate fixtures",
			Description: "Write each fixture into DIRECTORY, creating it if necessary, and record it in the manifest. Without --fixtures the standard fixture set is written.",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "fixtures",
					Usage: "XML fixture set to generate instead of the standard set",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				fixtures := tilefits.DefaultFixtures()
				if file := c.String("fixtures"); file != "" {
					var err error
					if fixtures, err = tilefits.LoadFixtures(file); err != nil {
						return cli.NewExitError(err, 1)
					}
				}

				g, err := newGenerator(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer g.Close()

				n, err := g.Generate(c.Args().First(), fixtures)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Printf("Generated %d fixtures in %s\n", n, c.Args().First())

				return nil
			},
		},
		{
			Name:        "verify",
			Usage:       "Verify fixtures against the manifest",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				g, err := newGenerator(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer g.Close()

				n, err := g.Verify(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Printf("Verified %d fixtures in %s\n", n, c.Args().First())

				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List fixtures recorded in the manifest",
			Description: "",
			Action: func(c *cli.Context) error {
				g, err := newGenerator(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer g.Close()

				entries, err := g.Manifest().Entries()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCODEC\tTYPE\tSIZE\tTILE\tBYTES\tSHA1")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\t%d\t%s\n", e.File, e.Codec, e.SampleType, e.Width, e.Height, e.Shape, e.Size, e.SHA1)
				}

				return w.Flush()
			},
		},
	}

	return app
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(cwd).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
