// Package mock provides test doubles for the ai package.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("model unavailable")
//	}
//
// Without injected functions, MockEmbedder returns deterministic vectors
// derived from an FNV hash of each text, so the same text always embeds
// the same way.
package mock
