package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// groupGenerator tries each entry in order and returns the first success.
// A cancelled context stops the chain between attempts.
type groupGenerator struct {
	chain []GeneratorEntry
}

func NewGroupGenerator(chain []GeneratorEntry) IGenerator {
	if len(chain) == 0 {
		return nil
	}
	return &groupGenerator{chain: chain}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, entry := range g.chain {
		if entry.Generator == nil {
			continue
		}
		res, err := entry.Generator.Generate(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("generator failed, trying next",
			zap.Int("position", i), zap.String("provider", entry.Name), zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if lastErr == nil {
		return "", fmt.Errorf("generator not configured")
	}
	return "", lastErr
}

type groupEmbedder struct {
	chain []EmbedderEntry
}

func NewGroupEmbedder(chain []EmbedderEntry) IEmbedder {
	if len(chain) == 0 {
		return nil
	}
	return &groupEmbedder{chain: chain}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	for i, entry := range g.chain {
		if entry.Embedder == nil {
			continue
		}
		res, err := entry.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed, trying next",
			zap.Int("position", i), zap.String("provider", entry.Name), zap.Error(err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return nil, lastErr
}

// ModelName names the whole chain. Cache keys derive from it, so two chains
// with different fallbacks never share cached vectors.
func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.chain))
	for _, entry := range g.chain {
		if entry.Name == "" {
			continue
		}
		names = append(names, entry.Name)
	}
	if len(names) == 0 {
		return ""
	}
	return strings.Join(names, "|")
}
