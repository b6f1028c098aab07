package qdrant

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docqa/internal/domain"
)

// Store is a minimal REST client to Qdrant. Each Init creates a fresh
// collection named after the configured base with a unique suffix; previous
// generations are removed only after a successful Upsert. A failed ingestion
// therefore leaves the collection of the still-published store untouched.
type Store struct {
	url        string
	apiKey     string
	collection string
	active     string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	s.active = fmt.Sprintf("%s-%d", s.collection, time.Now().UnixNano())
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.active), body)
}

func (s *Store) Upsert(ctx context.Context, records []domain.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	points := make([]map[string]any, len(records))
	for i := range records {
		payload := map[string]any{
			"content": records[i].Content,
			"origin":  records[i].Origin,
			"kind":    string(records[i].Kind),
			"page":    records[i].Page,
		}
		if len(records[i].ImageData) > 0 {
			payload["image_data"] = base64.StdEncoding.EncodeToString(records[i].ImageData)
		}
		points[i] = map[string]any{
			"id":      i,
			"vector":  vectors[i],
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.active), body); err != nil {
		return err
	}
	// The new generation is fully written; older ones can go. Cleanup
	// failures only leak collections, they never affect correctness.
	s.dropStale(ctx)
	return nil
}

// dropStale removes previous generations of the base collection, keeping
// the active one.
func (s *Store) dropStale(ctx context.Context) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("%s/collections", s.url), &resp); err != nil {
		return
	}
	for _, c := range resp.Result.Collections {
		if c.Name == s.active {
			continue
		}
		if c.Name != s.collection && !strings.HasPrefix(c.Name, s.collection+"-") {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, c.Name), nil)
		if err != nil {
			continue
		}
		s.setHeaders(req)
		if resp, err := s.client.Do(req); err == nil {
			resp.Body.Close()
		}
	}
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 4
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.active), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		record := domain.Record{}
		if v, ok := r.Payload["content"].(string); ok {
			record.Content = v
		}
		if v, ok := r.Payload["origin"].(string); ok {
			record.Origin = v
		}
		if v, ok := r.Payload["kind"].(string); ok {
			record.Kind = domain.RecordKind(v)
		}
		if v, ok := r.Payload["page"].(float64); ok {
			record.Page = int(v)
		}
		if v, ok := r.Payload["image_data"].(string); ok {
			if data, err := base64.StdEncoding.DecodeString(v); err == nil {
				record.ImageData = data
			}
		}
		results = append(results, domain.SearchResult{Record: record, Score: r.Score})
	}
	return results, nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
