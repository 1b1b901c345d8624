package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

var (
	askFiles       []string
	askJSON        bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about your documents",
	Long: `Reads the given documents, retrieves the passages most related to the
question and streams an answer grounded in them. When nothing relevant is
found the answer says so.

Press Ctrl+C to stop the answer; the text so far is kept and marked incomplete.`,
	Example: `  studybuddy ask -f biology.pdf "What do mitochondria do?"
  studybuddy ask -f week1.pdf -f week2.md -k 6 --show-context "Compare osmosis and diffusion"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "document to read before answering (repeatable)")
	askCmd.Flags().IntVarP(&topKOverride, "top-k", "k", 0, "number of passages to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer and its sources as JSON")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context before the answer")
	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON form of an answer.
type askResult struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Complete bool           `json:"complete"`
	Model    string         `json:"model,omitempty"`
	Sources  []sourceResult `json:"sources"`
	Uploads  []uploadResult `json:"uploads,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type sourceResult struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

type uploadResult struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireChat(); err != nil {
		return err
	}
	question := args[0]

	docs, err := readDocuments(askFiles)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reply, err := chatService.Turn(ctx, question, docs)
	if err != nil {
		outcomes := domain.TurnOutcomes(err)
		if askJSON {
			return printAnswerJSON(cmd, question, "", nil, outcomes, err)
		}
		printOutcomes(cmd, outcomes)
		return err
	}
	defer reply.Close()

	if !askJSON {
		printOutcomes(cmd, reply.Outcomes())
		if askShowContext && reply.Request() != nil {
			printContext(cmd, reply.Request())
		}
	}

	for reply.Next() {
		if !askJSON {
			cmd.Print(reply.Text())
		}
	}
	streamErr := reply.Err()

	if askJSON {
		return printAnswerJSON(cmd, question, reply.Answer(), reply.Request(), reply.Outcomes(), streamErr)
	}

	cmd.Println()
	if streamErr != nil {
		cmd.Println("[answer incomplete]")
		return streamErr
	}
	return nil
}

func printContext(cmd *cobra.Command, req *domain.GenerationRequest) {
	cmd.Println("--- context ---")
	cmd.Println(req.Context)
	cmd.Println("---------------")
}

func printAnswerJSON(
	cmd *cobra.Command,
	question, answer string,
	req *domain.GenerationRequest,
	outcomes []domain.IngestOutcome,
	streamErr error,
) error {
	result := askResult{
		Question: question,
		Answer:   answer,
		Complete: streamErr == nil,
		Sources:  []sourceResult{},
	}
	if req != nil {
		result.Model = req.ModelID
		for _, sc := range req.Sources {
			result.Sources = append(result.Sources, sourceResult{
				Source: sc.Chunk.Source,
				Page:   sc.Chunk.Page,
				Score:  sc.Score,
				Text:   sc.Chunk.Text,
			})
		}
	}
	for _, o := range outcomes {
		u := uploadResult{Name: o.Source, Chunks: o.Chunks}
		if o.Err != nil {
			u.Error = o.Err.Error()
		}
		result.Uploads = append(result.Uploads, u)
	}
	if streamErr != nil {
		result.Error = streamErr.Error()
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return streamErr
}
