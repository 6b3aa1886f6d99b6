package annotate

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/reader-lens/internal/read"
	"github.com/dtnitsch/reader-lens/models"
	"github.com/dtnitsch/reader-lens/pkg/annotate"
	"github.com/dtnitsch/reader-lens/pkg/inference"
	"github.com/dtnitsch/reader-lens/pkg/lexicon"
)

// toggle names in the settings table.
const (
	vocabularyToggle = "annotate.vocabulary"
	conceptsToggle   = "annotate.concepts"
)

func AnnotateAction(c *cli.Context) error {
	logger := read.NewLogger(c)

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	page, err := read.LoadPage(c, logger)
	if err != nil {
		logger.Error("failed to load page", "error", err)
		os.Exit(1)
	}

	document, err := read.ExtractDocument(config, page)
	if err != nil {
		logger.Error("failed to extract content", "error", err)
		os.Exit(2)
	}
	if document == nil {
		fmt.Fprintln(os.Stderr, "No readable content found on this page; nothing to annotate.")
		os.Exit(1)
	}

	database, store, err := read.OpenStore(config)
	if err != nil {
		logger.Error("failed to open progress store", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	kinds, err := resolveKinds(c, store, logger)
	if err != nil {
		logger.Error("failed to resolve annotation toggles", "error", err)
		os.Exit(2)
	}
	if len(kinds) == 0 {
		fmt.Fprintln(os.Stderr, "No annotation kinds enabled.")
		fmt.Fprintln(os.Stderr, "Enable one with --vocabulary or --concepts (the choice is remembered).")
		os.Exit(1)
	}

	client := inference.NewHTTPClient(
		config.Inference.URL, config.Inference.Model, config.Inference.APIKey)
	classifier := lexicon.NewClassifier(config.CommonWords)
	session := annotate.NewSession(classifier, client)

	for _, kind := range kinds {
		count, err := session.Annotate(c.Context, kind, document.Content)
		if err != nil {
			// Collaborator failures degrade this kind, not the run.
			logger.Warn("annotation pass failed", "kind", kind, "error", err)
			continue
		}
		logger.Info("Annotation pass complete", "kind", kind, "rewritten_nodes", count)
	}

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = config.OutputDir
	}
	if outputDir == "" {
		outputDir = "surfaces"
	}

	outPath, err := read.WriteSurface(document, outputDir, c.String("format"))
	if err != nil {
		logger.Error("failed to write reading surface", "error", err)
		os.Exit(2)
	}

	fmt.Printf("Annotated reading surface: %s\n", outPath)
	fmt.Printf("Cached terms this session: %d\n", session.Cache().Len())
	return nil
}

// resolveKinds turns the flag/toggle state into the list of annotation
// kinds to run. Explicit flags win and are persisted for next time;
// without flags the stored toggles decide.
func resolveKinds(c *cli.Context, store toggleStore, logger *slog.Logger) ([]annotate.Kind, error) {
	wantVocabulary, err := resolveToggle(c, store, "vocabulary", vocabularyToggle)
	if err != nil {
		return nil, err
	}
	wantConcepts, err := resolveToggle(c, store, "concepts", conceptsToggle)
	if err != nil {
		return nil, err
	}

	var kinds []annotate.Kind
	if wantVocabulary {
		kinds = append(kinds, annotate.KindVocabulary)
	}
	if wantConcepts {
		kinds = append(kinds, annotate.KindConcept)
	}
	logger.Info("Annotation kinds resolved", "vocabulary", wantVocabulary, "concepts", wantConcepts)
	return kinds, nil
}

type toggleStore interface {
	Toggle(name string) (bool, error)
	SetToggle(name string, on bool) error
}

func resolveToggle(c *cli.Context, store toggleStore, flag, setting string) (bool, error) {
	if c.IsSet(flag) {
		on := c.Bool(flag)
		if err := store.SetToggle(setting, on); err != nil {
			return false, err
		}
		return on, nil
	}
	return store.Toggle(setting)
}
