// Package rag answers natural-language questions grounded in the vector
// index: retrieve top-k records, build a numbered excerpt context, and
// issue one completion call constrained to that context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
	"github.com/vivid-lct/ai-trend-monitor/internal/vector"
)

// Retriever serves nearest-neighbor lookups over indexed records.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]vector.Hit, error)
}

// Chatter issues a single completion call.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

const (
	// NoDataMessage is returned before any model call when the index has
	// nothing to ground an answer in.
	NoDataMessage = "No indexed data yet. Run `trend run` first to ingest and index records."

	unreachableMessage = "Cannot reach the model server. Make sure Ollama is running and try again."

	defaultTopK = 5
)

const systemPrompt = "You are an AI technology trend analyst. " +
	"Answer strictly from the retrieved context below; do not invent anything it does not contain. " +
	"Answer in the same language as the question, keep the structure clear, " +
	"and cite excerpt numbers like [1] when referencing specific items. " +
	"If the context is unrelated or insufficient, say so plainly."

// Answerer composes grounded answers. One attempt per question, no
// retries: this is an interactive, latency-sensitive path.
type Answerer struct {
	retriever Retriever
	chatter   Chatter
	topK      int
	log       *zap.Logger
}

func New(retriever Retriever, chatter Chatter, topK int, log *zap.Logger) *Answerer {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Answerer{retriever: retriever, chatter: chatter, topK: topK, log: log}
}

// Ask retrieves context for the question and generates an answer. Every
// failure mode degrades to a user-facing message; Ask never errors.
func (a *Answerer) Ask(ctx context.Context, question string) string {
	hits, err := a.retriever.Search(ctx, question, a.topK)
	if err != nil {
		a.log.Warn("retrieval failed", zap.Error(err))
		hits = nil
	}
	if len(hits) == 0 {
		return NoDataMessage
	}

	user := fmt.Sprintf("Retrieved context:\n%s\n\nQuestion: %s",
		buildContext(hits), question)

	answer, err := a.chatter.Chat(ctx, systemPrompt, user)
	if err != nil {
		if isConnErr(err) {
			return unreachableMessage
		}
		a.log.Error("generation failed", zap.Error(err))
		return fmt.Sprintf("Failed to generate an answer: %v", err)
	}
	return strings.TrimSpace(answer)
}

func buildContext(hits []vector.Hit) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		date := ""
		if !h.PublishedAt.IsZero() {
			date = h.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "[%d] [%s] %s (source: %s, published: %s)\n    %s",
			i+1, h.Category, h.Title, h.Source, date, news.Truncate(h.Content, 500))
	}
	return b.String()
}

func isConnErr(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
