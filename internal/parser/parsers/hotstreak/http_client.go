package hotstreak

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/config"
	"github.com/Vodeneev/hotstreakline/internal/pkg/marketblob"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

const searchQuery = `
query search($query: String, $page: Int, $filters: SearchFilterInput) {
  search(query: $query, page: $page, filters: $filters) {
    results {
      markets64
      participant {
        player {
          firstName
          fullName
        }
      }
    }
  }
}`

const systemQuery = `
query system {
  system {
    sports {
      id
      name
      categories {
        id
        name
        groupName
      }
    }
  }
}`

type Client struct {
	baseURL    string
	cfg        *config.HotstreakConfig
	privyToken string
	client     *http.Client
}

func NewClient(cfg *config.HotstreakConfig, privyToken string) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		cfg:        cfg,
		privyToken: privyToken,
		client:     &http.Client{Timeout: timeout},
	}
}

// FetchMarkets возвращает игроков с markets64 для спорта из конфига.
// Игроки без markets64 отбрасываются сразу.
func (c *Client) FetchMarkets(ctx context.Context) ([]models.PlayerMarkets, error) {
	variables := map[string]any{
		"filters": map[string]any{
			"activeMarketsOnly": true,
			"sport":             c.cfg.SportGID,
		},
	}

	body, err := c.post(ctx, graphQLRequest{
		Query:         searchQuery,
		Variables:     variables,
		OperationName: "search",
	})
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("search query failed: %s", resp.Errors[0].Message)
	}

	players := make([]models.PlayerMarkets, 0, len(resp.Data.Search.Results))
	for _, r := range resp.Data.Search.Results {
		if r.Markets64 == "" {
			continue
		}
		players = append(players, models.PlayerMarkets{
			FirstName: r.Participant.Player.FirstName,
			FullName:  r.Participant.Player.FullName,
			Markets64: r.Markets64,
		})
	}
	return players, nil
}

// FetchCategories возвращает плоский справочник категорий по всем спортам.
// Числовой id категории восстанавливается из её gid тем же декодом, что и
// маркеры в блобе.
func (c *Client) FetchCategories(ctx context.Context) ([]models.Category, error) {
	body, err := c.post(ctx, graphQLRequest{
		Query:         systemQuery,
		Variables:     map[string]any{},
		OperationName: "system",
	})
	if err != nil {
		return nil, fmt.Errorf("system request: %w", err)
	}

	var resp systemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode system response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("system query failed: %s", resp.Errors[0].Message)
	}

	var cats []models.Category
	for _, sport := range resp.Data.System.Sports {
		for _, cat := range sport.Categories {
			_, numericID := marketblob.DecodeMarkerPayload(cat.ID)
			cats = append(cats, models.Category{
				ID:        cat.ID,
				NumericID: numericID,
				Name:      cat.Name,
				Group:     cat.GroupName,
				Sport:     sport.Name,
			})
		}
	}
	return cats, nil
}

func (c *Client) post(ctx context.Context, payload graphQLRequest) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/graphql-response+json, application/json")
	req.Header.Set("Origin", c.cfg.WebURL)
	req.Header.Set("Referer", c.cfg.WebURL+"/")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("x-hs3-version", "2")
	req.Header.Set("x-requested-with", "web")
	if c.privyToken != "" {
		req.Header.Set("privy-id-token", c.privyToken)
	}
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body []byte
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()

		body, err = io.ReadAll(gzReader)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzipped body: %w", err)
		}
	} else {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
	}
	return body, nil
}
