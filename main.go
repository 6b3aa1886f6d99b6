package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/reader-lens/internal/annotate"
	"github.com/dtnitsch/reader-lens/internal/progress"
	"github.com/dtnitsch/reader-lens/internal/read"
)

func main() {
	app := &cli.App{
		Name:  "reader-lens",
		Usage: "Extract the readable content of a web page, annotate it, and track reading progress",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "reader-lens.yaml",
				Usage: "Path to the YAML config file (optional)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "read",
				Usage:  "Extract a page's primary content into a reading surface",
				Flags:  append(pageFlags(), readFlags()...),
				Action: read.ReadAction,
			},
			{
				Name:   "annotate",
				Usage:  "Extract a page and add vocabulary/concept annotations",
				Flags:  append(pageFlags(), annotateFlags()...),
				Action: annotate.AnnotateAction,
			},
			{
				Name:  "progress",
				Usage: "Record and query per-document reading progress",
				Subcommands: []*cli.Command{
					{
						Name:      "record",
						Usage:     "Record a scroll position for a URL",
						ArgsUsage: "<url>",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "scroll-top", Usage: "Scroll offset in pixels", Required: true},
							&cli.IntFlag{Name: "viewport-height", Usage: "Viewport height in pixels", Required: true},
							&cli.IntFlag{Name: "document-height", Usage: "Full document height in pixels", Required: true},
							&cli.StringFlag{Name: "title", Usage: "Page title for the shelf"},
							&cli.StringFlag{Name: "favicon-url", Usage: "Favicon URL for the shelf"},
							&cli.StringFlag{Name: "reading-time", Usage: "Reading time label, e.g. \"8 min read\""},
						},
						Action: progress.RecordAction,
					},
					{
						Name:      "check",
						Usage:     "Show the resume position for a URL, if any",
						ArgsUsage: "<url>",
						Action:    progress.CheckAction,
					},
					{
						Name:   "list",
						Usage:  "List partially-read pages (the shelf) as YAML",
						Action: progress.ListAction,
					},
					{
						Name:      "dismiss",
						Usage:     "Remove a URL from the shelf",
						ArgsUsage: "<url>",
						Action:    progress.DismissAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// pageFlags are shared by every command that loads a page.
func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "URL of the page to read",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Read page HTML from a local file instead of fetching",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Value: ".reader-lens-cache",
			Usage: "Directory for cached page HTML",
		},
		&cli.StringFlag{
			Name:  "max-age",
			Value: "24h",
			Usage: "Reuse cached HTML younger than this duration",
		},
		&cli.BoolFlag{
			Name:  "force-fetch",
			Usage: "Bypass the HTML cache",
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Usage: "Where to write the reading surface (default from config, else ./surfaces)",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "html",
			Usage: "Output format: html or text",
		},
	}
}

func readFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "selection",
			Usage: "Read this pasted text instead of extracting the page (\"-\" for stdin)",
		},
	}
}

func annotateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "vocabulary",
			Usage: "Simplify complex words (persisted as the new default)",
		},
		&cli.BoolFlag{
			Name:  "concepts",
			Usage: "Explain acronyms and technical terms (persisted as the new default)",
		},
	}
}
