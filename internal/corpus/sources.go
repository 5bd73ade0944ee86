package corpus

import (
	"bytes"
	"compress/gzip"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/jobs"
)

//go:embed seed.json
var defaultSeed []byte

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	defaultAgent    = "job-triage/corpus-sync"
)

// Default returns the built-in seed list.
func Default() (Static, error) {
	var raw any
	if err := json.Unmarshal(defaultSeed, &raw); err != nil {
		return nil, fmt.Errorf("decoding built-in seed: %w", err)
	}
	postings, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Static(postings), nil
}

// File reads postings from a JSON or YAML document with a top-level
// "postings" list. The file is re-read on every call.
type File struct {
	Path string
}

func (f File) Postings(context.Context) ([]*jobs.Posting, error) {
	v := viper.New()
	v.SetConfigFile(f.Path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading seed file %q: %w", f.Path, err)
	}
	return Decode(map[string]any{"postings": v.Get("postings")})
}

// HTTP fetches a single static JSON seed document. Links are not followed.
type HTTP struct {
	URL       string
	Client    *http.Client
	UserAgent string
	Logger    *zap.Logger
}

func (h HTTP) Postings(ctx context.Context) ([]*jobs.Posting, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	agent := strings.TrimSpace(h.UserAgent)
	if agent == "" {
		agent = defaultAgent
	}
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding seed document: %w", err)
	}
	return Decode(raw)
}
