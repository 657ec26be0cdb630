package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/Malumbo21/askdb/internal/database"
	"github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/executor"
	"github.com/Malumbo21/askdb/internal/linker"
	"github.com/Malumbo21/askdb/internal/llm"
	"github.com/Malumbo21/askdb/internal/token"
)

var (
	askContext  string
	askLimit    int
	askYes      bool
	askNoWrites bool
	askExplain  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a natural-language question with SQL",
	Long: `Translate a question into SQL, validate it against the configured
databases, and run it. Write statements are dry-run first and need approval.

Examples:
  askdb ask "show the top 5 customers by order total"
  askdb ask --limit 20 "which products were never ordered?"
  askdb ask --yes "reset the totals for customer 7"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askContext, "context", "", "Extra context passed to generation")
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "Row limit override (0 uses the configured limit)")
	askCmd.Flags().BoolVarP(&askYes, "yes", "y", false, "Approve write statements without prompting")
	askCmd.Flags().BoolVar(&askNoWrites, "no-writes", false, "Reject every write statement")
	askCmd.Flags().BoolVar(&askExplain, "explain", false, "Print the validated SQL without executing it")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	question := strings.TrimSpace(args[0])
	if question == "" {
		return errors.New(errors.ErrTypeValidation, "question must not be empty")
	}

	if len(appConfig.Databases) == 0 {
		return errors.New(errors.ErrTypeConfig, "no databases configured").
			WithSuggestion("add databases to the config file or set ASKDB_DB_DRIVER and ASKDB_DB_DSN")
	}

	registry, err := database.OpenAll(ctx, appConfig.Databases)
	if err != nil {
		return err
	}
	defer registry.Close()

	manager, err := llm.NewManagerFromConfig(appConfig)
	if err != nil {
		return err
	}

	keyword := linker.NewKeywordStrategy(token.NewExtractor(), linker.KeywordConfig{
		MaxKeywords: appConfig.Linker.MaxKeywords,
	})
	strategy := linker.NewLLMStrategy(manager, keyword)

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	spin.Suffix = " working..."

	orch := executor.New(registry, manager, strategy,
		approvalFunc(spin), executor.Config{
			MaxRevisionAttempts: appConfig.Executor.MaxRevisionAttempts,
			MaxExecutionRetries: appConfig.Executor.MaxExecutionRetries,
			RowLimit:            appConfig.Executor.RowLimit,
			TurnTimeout:         appConfig.TurnTimeout(),
			Linker: linker.ChainConfig{
				MinRelevantTables: appConfig.Linker.MinRelevantTables,
				SmallSchemaTables: appConfig.Linker.SmallSchemaTables,
				SampleRows:        appConfig.Linker.SampleRows,
			},
		})

	spin.Start()

	outcome, err := orch.Execute(ctx, executor.Task{
		Query:        question,
		Context:      askContext,
		RowLimit:     askLimit,
		GenerateOnly: askExplain,
	})

	spin.Stop()

	if err != nil {
		return err
	}

	if askExplain {
		for _, block := range outcome.Blocks {
			fmt.Printf("-- database: %s\n%s\n\n", block.Database, block.SQL)
		}

		for _, msg := range outcome.Errors {
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		}

		if !outcome.Success {
			return errors.New(errors.ErrTypeGeneration, "no valid statement generated")
		}

		return nil
	}

	if outcome.Combined != nil && outcome.Combined.RowCount > 0 {
		fmt.Print(renderTable(outcome.Combined))
		fmt.Printf("\n%d row(s)\n", outcome.Combined.RowCount)
	} else if outcome.Success {
		fmt.Println("Query succeeded with no rows.")
	}

	for _, msg := range outcome.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	if !outcome.Success {
		return errors.New(errors.ErrTypeExecution, "no statement produced results")
	}

	return nil
}

// approvalFunc builds the write-approval gate from the ask flags. The
// spinner is paused while the prompt is on screen.
func approvalFunc(spin *spinner.Spinner) executor.ApprovalFunc {
	if askNoWrites {
		return nil
	}

	if askYes {
		return func(context.Context, executor.ApprovalRequest) (bool, error) {
			return true, nil
		}
	}

	return func(_ context.Context, req executor.ApprovalRequest) (bool, error) {
		spin.Stop()
		defer spin.Start()

		return promptApproval(os.Stdin, os.Stdout, req)
	}
}

// promptApproval shows the pending write and reads a yes/no answer.
func promptApproval(in io.Reader, out io.Writer, req executor.ApprovalRequest) (bool, error) {
	fmt.Fprintf(out, "\nPending write on database %q:\n\n  %s\n\n", req.Database, req.SQL)
	fmt.Fprintf(out, "Operation: %s\n", req.Operation)

	if len(req.Tables) > 0 {
		fmt.Fprintf(out, "Tables: %s\n", strings.Join(req.Tables, ", "))
	}

	if req.DryRun != nil && req.DryRun.EstimatedRows >= 0 {
		fmt.Fprintf(out, "Estimated affected rows: %d\n", req.DryRun.EstimatedRows)
	}

	if req.HighRisk {
		fmt.Fprintf(out, "\nWARNING: this operation can destroy data and cannot be undone.\n")
	}

	fmt.Fprintf(out, "\nType 'yes' to run it: ")

	reader := bufio.NewReader(in)

	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false, fmt.Errorf("failed to read approval input: %w", err)
	}

	return strings.TrimSpace(strings.ToLower(response)) == "yes", nil
}
