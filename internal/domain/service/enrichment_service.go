package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// EnrichmentService calls the deployed classify and embed functions over
// HTTP. Both calls are best-effort from the caller's point of view: a listing
// is created even when enrichment fails.
type EnrichmentService struct {
	classifierURL string
	embedderURL   string
	httpClient    *http.Client
}

func NewEnrichmentService(classifierURL, embedderURL string) *EnrichmentService {
	return &EnrichmentService{
		classifierURL: classifierURL,
		embedderURL:   embedderURL,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

type classifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type classifyResponse struct {
	Category string `json:"category"`
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// ClassifyListing suggests a category for a listing's title and description.
func (s *EnrichmentService) ClassifyListing(ctx context.Context, title, description string) (string, error) {
	if s.classifierURL == "" {
		return "", fmt.Errorf("classifier not configured")
	}

	var result classifyResponse
	if err := s.post(ctx, s.classifierURL, classifyRequest{Title: title, Description: description}, &result); err != nil {
		return "", err
	}

	log.Printf("Classified listing %q as %q", title, result.Category)
	return result.Category, nil
}

// EmbedText computes the embedding vector used for similar-listing search.
func (s *EnrichmentService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if s.embedderURL == "" {
		return nil, fmt.Errorf("embedder not configured")
	}

	var result embedResponse
	if err := s.post(ctx, s.embedderURL, embedRequest{Text: text}, &result); err != nil {
		return nil, err
	}

	return result.Embedding, nil
}

func (s *EnrichmentService) post(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("enrichment call failed with status %d: %s", resp.StatusCode, string(raw))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
