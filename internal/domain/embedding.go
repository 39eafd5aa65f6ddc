package domain

import "context"

// EmbeddingService produces the vector representation of a text. Generated
// question drafts are embedded and compared against a quiz's existing
// questions so near-duplicates get dropped before anyone reviews them.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
