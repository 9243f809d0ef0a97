// Package retrieval implements the candidate selection core: lexical
// candidate pools, greedy ingredient coverage, time and duplicate
// filtering, and similarity reranking.
package retrieval

import (
	"context"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// Repository is the document store capability the retrieval core consumes.
type Repository interface {
	// SearchLexical returns up to topK recipes in relevance order.
	// Returned recipes carry their stored vectors.
	SearchLexical(ctx context.Context, query string, topK int) ([]recipe.Recipe, error)
	// SearchHybrid returns up to topK recipes from a fused lexical and
	// vector ranking.
	SearchHybrid(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error)
}

// Embedder is the query vectorization oracle.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
