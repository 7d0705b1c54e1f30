package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRerankModel   = "rerank-english-v3.0"
	defaultRerankTimeout = 30 * time.Second
)

// HTTPConfig configures the remote cross-encoder reranker.
type HTTPConfig struct {
	BaseURL string // e.g. https://api.cohere.com
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPReranker calls a Cohere-style /v1/rerank endpoint. Its failures are
// returned to the caller, which is expected to degrade to score ordering.
type HTTPReranker struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPReranker creates a remote reranker client.
func NewHTTPReranker(cfg HTTPConfig, logger *zap.Logger) (*HTTPReranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rerank base URL required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("rerank API key required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model := cfg.Model
	if model == "" {
		model = defaultRerankModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRerankTimeout
	}

	return &HTTPReranker{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank sends documents to the remote endpoint and maps the scored indices
// back onto the input.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, docs []Document, topN int) ([]ScoredDocument, error) {
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: texts,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling rerank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API error (%d): %s", resp.StatusCode, string(body))
	}

	var rr rerankResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("parsing rerank response: %w", err)
	}

	out := make([]ScoredDocument, 0, len(rr.Results))
	for _, res := range rr.Results {
		if res.Index < 0 || res.Index >= len(docs) {
			r.logger.Warn("rerank result index out of range", zap.Int("index", res.Index))
			continue
		}
		out = append(out, ScoredDocument{
			Document:       docs[res.Index],
			RelevanceScore: res.RelevanceScore,
			OriginalRank:   res.Index,
		})
	}
	return out, nil
}
