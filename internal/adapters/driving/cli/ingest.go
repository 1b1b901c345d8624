package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Check that documents can be read and indexed",
	Long: `Extracts, embeds and indexes each file and reports how many chunks it
produced. The index lives only for this command, so this is mainly useful for
checking documents and provider settings before a chat.

Supported formats: PDF, plain text, markdown, HTML and Word (.docx). Files with
other extensions are read as PDF.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireIngestion(); err != nil {
		return err
	}

	docs, err := readDocuments(args)
	if err != nil {
		return err
	}

	outcomes := ingestionService.IngestAll(cmd.Context(), docs)
	failed := printOutcomes(cmd, outcomes)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents could not be ingested", failed, len(outcomes))
	}
	return nil
}

// readDocuments loads each path from disk.
func readDocuments(paths []string) ([]domain.UploadedDocument, error) {
	docs := make([]domain.UploadedDocument, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, domain.UploadedDocument{Name: filepath.Base(path), Data: data})
	}
	return docs, nil
}

// printOutcomes prints one line per document and returns the number of failures.
func printOutcomes(cmd *cobra.Command, outcomes []domain.IngestOutcome) int {
	return writeOutcomes(cmd.OutOrStderr(), outcomes)
}

// writeOutcomes lists each document with its chunk count or failure and
// returns how many failed.
func writeOutcomes(w io.Writer, outcomes []domain.IngestOutcome) int {
	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			fmt.Fprintf(w, "  ✓ %s: %d chunks\n", o.Source, o.Chunks)
			continue
		}
		failed++
		fmt.Fprintf(w, "  ✗ %s: %v\n", o.Source, o.Err)
	}
	return failed
}
