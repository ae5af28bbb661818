package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivid-lct/ai-trend-monitor/internal/config"
	"github.com/vivid-lct/ai-trend-monitor/internal/ollama"
	"github.com/vivid-lct/ai-trend-monitor/internal/rag"
	"github.com/vivid-lct/ai-trend-monitor/internal/vector"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question grounded in the indexed records",
	Long: `Answer a natural-language question from the vector index.

With a question argument, answers once and exits. Without arguments,
starts an interactive loop; enter an empty line or "exit" to leave.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err := newLogger()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer log.Sync()

		oc := cfg.GetOllama()
		client := ollama.New(oc.BaseURL, oc.ChatModel, oc.EmbedModel, oc.MaxTokens)

		ix, err := vector.Open(config.VectorDBPath(), client, log)
		if err != nil {
			return fmt.Errorf("opening vector index: %w", err)
		}
		defer ix.Close()

		answerer := rag.New(ix, client, oc.TopK, log)

		if len(args) > 0 {
			fmt.Println(answerer.Ask(cmd.Context(), strings.Join(args, " ")))
			return nil
		}

		// One question at a time; each is answered fully before the
		// next prompt.
		fmt.Println("Ask about the collected AI news. Empty line or \"exit\" to quit.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" || question == "exit" || question == "quit" {
				break
			}
			fmt.Println(answerer.Ask(cmd.Context(), question))
			fmt.Println()
		}
		return scanner.Err()
	},
}
