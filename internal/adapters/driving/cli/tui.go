package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// runChatTUI runs the full-screen chat until the student quits. Documents
// from watched are ingested in the background and reported in the transcript.
func runChatTUI(
	cmd *cobra.Command,
	attached []domain.UploadedDocument,
	watched <-chan domain.UploadedDocument,
) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(chatService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.WithContext(ctx).Attach(attached...)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if watched != nil {
		go func() {
			for doc := range watched {
				outcome := ingestOne(ctx, doc)
				p.Send(messages.DocumentIngested{Outcome: outcome})
			}
		}()
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// ingestOne ingests a single document and reports the outcome.
func ingestOne(ctx context.Context, doc domain.UploadedDocument) domain.IngestOutcome {
	n, err := ingestionService.Ingest(ctx, doc)
	return domain.IngestOutcome{Source: doc.Name, Chunks: n, Err: err}
}
