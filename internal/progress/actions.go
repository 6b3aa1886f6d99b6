package progress

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/reader-lens/internal/common"
	"github.com/dtnitsch/reader-lens/internal/read"
	"github.com/dtnitsch/reader-lens/models"
	progresspkg "github.com/dtnitsch/reader-lens/pkg/progress"
)

// shelfEntry is the YAML shape for `progress list` output.
type shelfEntry struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title,omitempty"`
	Hostname    string `yaml:"hostname,omitempty"`
	Percent     int    `yaml:"percent"`
	ScrollTop   int    `yaml:"scroll_top"`
	ReadingTime string `yaml:"reading_time,omitempty"`
	UpdatedMs   int64  `yaml:"updated_ms"`
}

func RecordAction(c *cli.Context) error {
	logger := read.NewLogger(c)

	store, closeStore, rawURL := setup(c, logger)
	defer closeStore()

	tick := progresspkg.Tick{
		ScrollTop:        c.Int("scroll-top"),
		ViewportHeight:   c.Int("viewport-height"),
		DocumentHeight:   c.Int("document-height"),
		Title:            c.String("title"),
		FaviconURL:       c.String("favicon-url"),
		ReadingTimeLabel: c.String("reading-time"),
	}

	if err := store.RecordProgress(rawURL, tick); err != nil {
		logger.Error("failed to record progress", "error", err)
		os.Exit(2)
	}

	percent := progresspkg.Percent(tick.ScrollTop, tick.ViewportHeight, tick.DocumentHeight)
	fmt.Printf("Recorded %d%% for %s\n", percent, rawURL)
	return nil
}

func CheckAction(c *cli.Context) error {
	logger := read.NewLogger(c)

	store, closeStore, rawURL := setup(c, logger)
	defer closeStore()

	record, err := store.CheckProgress(rawURL)
	if err != nil {
		logger.Error("failed to check progress", "error", err)
		os.Exit(2)
	}
	if record == nil {
		fmt.Println("No resume position for this page.")
		return nil
	}

	fmt.Printf("Resume at %d%% (scroll %d)", record.ProgressPercent, record.ScrollTop)
	if record.Title != "" {
		fmt.Printf(" — %s", record.Title)
	}
	fmt.Println()
	return nil
}

func ListAction(c *cli.Context) error {
	logger := read.NewLogger(c)

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	database, store, err := read.OpenStore(config)
	if err != nil {
		logger.Error("failed to open progress store", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	records, err := store.Shelf()
	if err != nil {
		logger.Error("failed to list shelf", "error", err)
		os.Exit(2)
	}
	if len(records) == 0 {
		fmt.Println("The shelf is empty: nothing partially read.")
		return nil
	}

	entries := make([]shelfEntry, len(records))
	for i, r := range records {
		entries[i] = shelfEntry{
			URL:         r.SourceURL,
			Title:       r.Title,
			Hostname:    r.Hostname,
			Percent:     r.ProgressPercent,
			ScrollTop:   r.ScrollTop,
			ReadingTime: r.ReadingTimeLabel,
			UpdatedMs:   r.TimestampMs,
		}
	}

	outputData, err := yaml.Marshal(entries)
	if err != nil {
		logger.Error("failed to marshal shelf", "error", err)
		os.Exit(2)
	}
	fmt.Print(string(outputData))
	return nil
}

func DismissAction(c *cli.Context) error {
	logger := read.NewLogger(c)

	store, closeStore, rawURL := setup(c, logger)
	defer closeStore()

	if err := store.Dismiss(rawURL); err != nil {
		logger.Error("failed to dismiss shelf entry", "error", err)
		os.Exit(2)
	}
	fmt.Printf("Dismissed %s\n", rawURL)
	return nil
}

// setup handles the shared boilerplate: config, store, and the URL
// argument every progress subcommand takes. Exits on any failure.
func setup(c *cli.Context, logger *slog.Logger) (*progresspkg.Store, func(), string) {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no URL provided")
		fmt.Fprintln(os.Stderr, "Usage: reader-lens progress "+c.Command.Name+" <url>")
		os.Exit(1)
	}
	rawURL, err := common.ValidateURL(c.Args().First())
	if err != nil {
		logger.Error("invalid URL", "error", err)
		os.Exit(1)
	}

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	database, store, err := read.OpenStore(config)
	if err != nil {
		logger.Error("failed to open progress store", "error", err)
		os.Exit(2)
	}
	return store, func() { database.Close() }, rawURL
}
