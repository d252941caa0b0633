package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/precisionrag/backend/internal/core/domain"
	"github.com/precisionrag/backend/internal/core/ports"
)

const answerPromptTemplate = `You are an assistant for question-answering tasks.
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
You must answer *only* based on the context provided.

Context:
%s

Question:
%s

Answer:
`

// noContextAnswer is returned without a backend call when retrieval
// produced nothing to ground an answer on.
const noContextAnswer = "I don't know. The indexed documents contain no relevant context for this question."

// ChatUseCase runs the query-time pipeline: hybrid retrieval, cross
// encoder reranking, context assembly, and backend completion.
type ChatUseCase struct {
	retriever *HybridRetrieveUseCase
	reranker  *RerankUseCase
	backends  ports.ChatBackendFactory
}

func NewChatUseCase(
	retriever *HybridRetrieveUseCase,
	reranker *RerankUseCase,
	backends ports.ChatBackendFactory,
) *ChatUseCase {
	return &ChatUseCase{
		retriever: retriever,
		reranker:  reranker,
		backends:  backends,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, question, backendChoice, apiKey string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("question is empty"))
	}

	// Resolve the backend before any retrieval work so a bad choice or
	// missing credential fails fast.
	backend, err := uc.backends.Backend(backendChoice, apiKey)
	if err != nil {
		return nil, err
	}

	pool, err := uc.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	window, err := uc.reranker.Rerank(ctx, question, pool)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	if len(window) == 0 {
		return &domain.Answer{Text: noContextAnswer, Sources: []domain.Chunk{}}, nil
	}

	prompt := fmt.Sprintf(answerPromptTemplate, AssembleContext(window), question)
	answerText, err := backend.Complete(ctx, prompt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGenerationFailed, "backend completion", err)
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(answerText),
		Sources: window,
	}, nil
}
