package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/extractor"
	"github.com/custodia-labs/studybuddy/internal/connectors/filesystem"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

var (
	chatFiles []string
	chatWatch string
	chatPlain bool
)

// isTerminal reports whether output goes to a terminal. Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive study session",
	Long: `Starts a conversation about your documents. Each question is answered
from the passages retrieved from everything uploaded so far in the session.

In a terminal this opens a full-screen chat; otherwise questions are read one
per line from standard input.

Commands:
  /attach <file>   Read a file together with your next question
  /history         Print the conversation so far
  /clear           Forget the conversation
  /quit            End the session

With --watch, documents already in the directory are read at start-up and new
ones are read as soon as they appear.`,
	Example: `  studybuddy chat -f lecture1.pdf -f lecture2.pdf
  studybuddy chat --watch ~/notes/biology`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringArrayVarP(&chatFiles, "file", "f", nil, "document to read with the first question (repeatable)")
	chatCmd.Flags().StringVarP(&chatWatch, "watch", "w", "", "directory to read documents from as they appear")
	chatCmd.Flags().IntVarP(&topKOverride, "top-k", "k", 0, "number of passages to retrieve (default from settings)")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use the line-based interface even in a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requireChat(); err != nil {
		return err
	}

	attached, err := readDocuments(chatFiles)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var watched <-chan domain.UploadedDocument
	if chatWatch != "" {
		if err := requireIngestion(); err != nil {
			return err
		}
		connector := filesystem.New(chatWatch, extractor.NewDefaultRegistry().SupportedExtensions())
		existing, err := connector.Scan(ctx)
		if err != nil {
			return err
		}
		attached = append(attached, existing...)
		watched, err = connector.Watch(ctx)
		if err != nil {
			return err
		}
		defer connector.Close()
	}

	if isTerminal() && !chatPlain {
		return runChatTUI(cmd, attached, watched)
	}
	return runChatREPL(ctx, cmd, attached, watched)
}

// runChatREPL answers one question per input line until EOF or /quit.
func runChatREPL(
	ctx context.Context,
	cmd *cobra.Command,
	attached []domain.UploadedDocument,
	watched <-chan domain.UploadedDocument,
) error {
	out := &syncWriter{w: cmd.OutOrStdout()}

	if watched != nil {
		go func() {
			for doc := range watched {
				o := ingestOne(ctx, doc)
				if o.OK() {
					fmt.Fprintf(out, "[watch] added %s (%d chunks)\n", o.Source, o.Chunks)
				} else {
					fmt.Fprintf(out, "[watch] could not read %s: %v\n", o.Source, o.Err)
				}
			}
		}()
	}

	pending := attached
	if len(pending) > 0 {
		fmt.Fprintf(out, "%d document(s) will be read with your first question.\n", len(pending))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := replCommand(ctx, out, line, &pending)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		docs := pending
		pending = nil
		if err := replTurn(ctx, out, line, docs); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func replTurn(ctx context.Context, out io.Writer, question string, docs []domain.UploadedDocument) error {
	reply, err := chatService.Turn(ctx, question, docs)
	if err != nil {
		writeOutcomes(out, domain.TurnOutcomes(err))
		return err
	}
	defer reply.Close()

	writeOutcomes(out, reply.Outcomes())

	for reply.Next() {
		fmt.Fprint(out, reply.Text())
	}
	fmt.Fprintln(out)
	if err := reply.Err(); err != nil {
		fmt.Fprintln(out, "[answer incomplete]")
		return err
	}
	return nil
}

func replCommand(ctx context.Context, out io.Writer, line string, pending *[]domain.UploadedDocument) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/attach", "/upload":
		if arg == "" {
			return false, fmt.Errorf("%w: usage /attach <file>", domain.ErrInvalidInput)
		}
		docs, err := readDocuments([]string{arg})
		if err != nil {
			return false, err
		}
		*pending = append(*pending, docs...)
		fmt.Fprintf(out, "Attached %s; it will be read with your next question.\n", docs[0].Name)
	case "/history":
		entries, err := chatService.History(ctx)
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s: %s\n", e.Role, e.Text)
		}
	case "/clear":
		if err := chatService.ClearHistory(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "Conversation cleared.")
	case "/quit", "/exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %s", name)
	}
	return false, nil
}

// syncWriter serialises writes from the watcher and the main loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
