package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ops-insights-go/internal/logger"
)

const httpTimeout = 10 * time.Second

// HTTPStore talks to the hosted blob service. Server errors and network
// failures retry with exponential backoff; client errors are permanent.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStore(baseURL, token string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (s *HTTPStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	log := logger.New().WithComponent("blob").WithField("key", key)

	target := s.baseURL + "/" + key
	var resultURL string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if err := statusErr(resp.StatusCode, body); err != nil {
			return err
		}

		var parsed struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.URL != "" {
			resultURL = parsed.URL
		} else {
			resultURL = target
		}
		return nil
	}
	if err := backoff.Retry(op, s.policy(ctx)); err != nil {
		log.WithError(err).Error("put failed")
		return "", fmt.Errorf("blob put %s: %w", key, err)
	}
	return resultURL, nil
}

func (s *HTTPStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			s.baseURL+"?prefix="+url.QueryEscape(prefix), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if err := statusErr(resp.StatusCode, body); err != nil {
			return err
		}

		var parsed struct {
			Blobs []ObjectInfo `json:"blobs"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode listing: %w", err))
		}
		out = parsed.Blobs
		return nil
	}
	if err := backoff.Retry(op, s.policy(ctx)); err != nil {
		return nil, fmt.Errorf("blob list %s: %w", prefix, err)
	}
	return out, nil
}

func (s *HTTPStore) Fetch(ctx context.Context, blobURL string) ([]byte, error) {
	var out []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(ErrNotFound)
		}
		if err := statusErr(resp.StatusCode, body); err != nil {
			return err
		}
		out = body
		return nil
	}
	if err := backoff.Retry(op, s.policy(ctx)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob fetch: %w", err)
	}
	return out, nil
}

func (s *HTTPStore) Del(ctx context.Context, blobURL string) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, blobURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return nil // deleting an absent blob is not an error
		}
		return statusErr(resp.StatusCode, body)
	}
	if err := backoff.Retry(op, s.policy(ctx)); err != nil {
		return fmt.Errorf("blob delete: %w", err)
	}
	return nil
}

func (s *HTTPStore) policy(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	return backoff.WithContext(bo, ctx)
}

func statusErr(code int, body []byte) error {
	switch {
	case code < 300:
		return nil
	case code >= 500:
		return fmt.Errorf("blob server error %d: %s", code, body)
	default:
		return backoff.Permanent(fmt.Errorf("blob client error %d: %s", code, body))
	}
}
