package read

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/reader-lens/internal/common"
	"github.com/dtnitsch/reader-lens/models"
	"github.com/dtnitsch/reader-lens/pkg/db"
	"github.com/dtnitsch/reader-lens/pkg/enrich"
	"github.com/dtnitsch/reader-lens/pkg/extract"
	"github.com/dtnitsch/reader-lens/pkg/fetcher"
	"github.com/dtnitsch/reader-lens/pkg/progress"
	"github.com/dtnitsch/reader-lens/pkg/render"
	"github.com/dtnitsch/reader-lens/pkg/score"
)

// NewLogger builds the shared JSON logger. --quiet drops everything
// below error.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadedPage is the raw material for extraction: fetched or file-read
// HTML plus the URL it is attributed to.
type LoadedPage struct {
	SourceURL string
	RawHTML   []byte
}

// LoadPage resolves the --url / --file flags into page HTML. Exactly
// one of the two must be set. Fetches go through the TTL file cache
// unless --force-fetch bypasses it.
func LoadPage(c *cli.Context, logger *slog.Logger) (*LoadedPage, error) {
	filePath := c.String("file")
	rawURL := c.String("url")

	if filePath != "" {
		data, err := os.ReadFile(filepath.Clean(filePath))
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		if rawURL == "" {
			rawURL = "file://" + filePath
		}
		return &LoadedPage{SourceURL: rawURL, RawHTML: data}, nil
	}

	if rawURL == "" {
		return nil, fmt.Errorf("no input provided; use --url or --file")
	}

	cleaned, err := common.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if cleaned != rawURL {
		logger.Info("URL auto-cleaned", "original", rawURL, "cleaned", cleaned)
	}

	maxAge := 24 * time.Hour
	if c.IsSet("max-age") {
		maxAge, err = time.ParseDuration(c.String("max-age"))
		if err != nil {
			return nil, fmt.Errorf("invalid max-age duration: %w", err)
		}
	}
	if c.Bool("force-fetch") {
		maxAge = 0
	}

	cached, err := fetcher.NewCachedFetcher(c.String("cache-dir"), maxAge)
	if err != nil {
		return nil, err
	}

	logger.Info("Fetching page", "url", cleaned)
	data, err := cached.GetHtmlBytes(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", cleaned, err)
	}
	return &LoadedPage{SourceURL: cleaned, RawHTML: data}, nil
}

// ExtractDocument runs the scoring extractor over loaded HTML and
// enriches the result. A nil document means the page has no readable
// content; that is the caller's call to report, not an error.
func ExtractDocument(config *models.Config, page *LoadedPage) (*models.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.RawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	scorer := score.NewScorer(config.NegativeKeywords, config.PositiveKeywords)
	document := extract.New(scorer).Extract(doc, page.SourceURL)
	if document == nil {
		return nil, nil
	}

	enrich.New().Enrich(document, string(page.RawHTML), page.SourceURL)
	return document, nil
}

// WriteSurface renders the document and writes it under the output
// directory, returning the file path.
func WriteSurface(document *models.Document, outputDir, format string) (string, error) {
	var rendered string
	ext := ".html"
	if strings.EqualFold(format, "text") {
		rendered = render.Text(document)
		ext = ".txt"
	} else {
		var err error
		rendered, err = render.HTML(document)
		if err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := filepath.Join(outputDir, savePath(document.SourceURL, ext))
	if err := os.WriteFile(outPath, []byte(rendered), 0644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return outPath, nil
}

// OpenStore opens the progress store, honoring the configured DB path.
func OpenStore(config *models.Config) (*db.DB, *progress.Store, error) {
	var database *db.DB
	var err error
	if config.DBPath != "" {
		database, err = db.OpenPath(config.DBPath)
	} else {
		database, err = db.Open()
	}
	if err != nil {
		return nil, nil, err
	}
	return database, progress.NewStore(database), nil
}

func ReadAction(c *cli.Context) error {
	logger := NewLogger(c)

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	var document *models.Document
	sourceURL := c.String("url")

	if selection := c.String("selection"); selection != "" {
		// Isolate-selection mode: the pasted text is the whole page.
		text := selection
		if selection == "-" {
			data, err := readAllStdin()
			if err != nil {
				logger.Error("failed to read selection from stdin", "error", err)
				os.Exit(2)
			}
			text = data
		}
		document = extract.FromSelection(text, sourceURL)
	} else {
		page, err := LoadPage(c, logger)
		if err != nil {
			logger.Error("failed to load page", "error", err)
			os.Exit(1)
		}
		sourceURL = page.SourceURL

		document, err = ExtractDocument(config, page)
		if err != nil {
			logger.Error("failed to extract content", "error", err)
			os.Exit(2)
		}
		if document == nil {
			fmt.Fprintln(os.Stderr, "No readable content found on this page.")
			fmt.Fprintln(os.Stderr, "Tip: pass a text selection with --selection to read just that part.")
			os.Exit(1)
		}
	}

	logger.Info("Extracted document",
		"title", document.Title,
		"words", document.WordCount,
		"headings", len(document.Headings),
		"language", document.Language)

	// Resume notice: a fresh, deep-enough record means the reader was
	// partway through this page before.
	database, store, err := OpenStore(config)
	if err != nil {
		logger.Warn("progress store unavailable", "error", err)
	} else {
		defer database.Close()
		if record, err := store.CheckProgress(sourceURL); err != nil {
			logger.Warn("failed to check progress", "error", err)
		} else if record != nil {
			fmt.Fprintf(os.Stderr, "Resume available: %d%% read (scroll %d)\n",
				record.ProgressPercent, record.ScrollTop)
		}
	}

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = config.OutputDir
	}
	if outputDir == "" {
		outputDir = "surfaces"
	}

	outPath, err := WriteSurface(document, outputDir, c.String("format"))
	if err != nil {
		logger.Error("failed to write reading surface", "error", err)
		os.Exit(2)
	}

	fmt.Printf("Reading surface: %s\n", outPath)
	if document.ReadingTimeMinutes > 0 {
		fmt.Printf("%d words, %d min read\n", document.WordCount, document.ReadingTimeMinutes)
	}
	return nil
}

func readAllStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// savePath generates a filesystem-friendly name from a URL, host plus
// flattened path plus date, so repeated runs on the same day overwrite
// rather than pile up.
func savePath(rawURL, ext string) string {
	today := time.Now().Format("2006-01-02")

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		safe := strings.ReplaceAll(rawURL, "https://", "")
		safe = strings.ReplaceAll(safe, "http://", "")
		safe = strings.ReplaceAll(safe, "file://", "")
		safe = strings.ReplaceAll(safe, "/", "_")
		if safe == "" {
			safe = "selection"
		}
		return fmt.Sprintf("%s-%s%s", safe, today, ext)
	}

	host := strings.ReplaceAll(parsedURL.Host, ".", "_")
	path := strings.Trim(parsedURL.Path, "/")
	path = strings.ReplaceAll(path, "/", "-")
	path = strings.ReplaceAll(path, ".", "_")

	base := host
	if path != "" {
		base = fmt.Sprintf("%s-%s", host, path)
	}
	return fmt.Sprintf("%s-%s%s", base, today, ext)
}
