package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
)

const (
	phAPIURL  = "https://api.producthunt.com/v2/api/graphql"
	phFeedURL = "https://www.producthunt.com/feed"
)

const phPostsQuery = `
query GetPosts($postedAfter: DateTime!) {
  posts(first: 50, order: VOTES, postedAfter: $postedAfter) {
    edges {
      node {
        id
        name
        tagline
        description
        url
        votesCount
        commentsCount
        featuredAt
        website
        topics { edges { node { name } } }
      }
    }
  }
}`

// ProductHunt collects recent launches via the GraphQL API, falling back to
// the public feed when no access token is configured or the API call fails.
type ProductHunt struct {
	client     *http.Client
	apiURL     string
	feedURL    string
	token      string
	feedParser *gofeed.Parser
	logger     logger.Logger
}

// NewProductHunt creates a Product Hunt collector.
func NewProductHunt(client *http.Client, token string, log logger.Logger) *ProductHunt {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ProductHunt{
		client:     client,
		apiURL:     phAPIURL,
		feedURL:    phFeedURL,
		token:      token,
		feedParser: gofeed.NewParser(),
		logger:     log,
	}
}

// Name implements Collector.
func (p *ProductHunt) Name() string { return string(models.SourceProductHunt) }

// FetchRecent fetches recent launches inside the window.
func (p *ProductHunt) FetchRecent(ctx context.Context, windowDays int) ([]CandidateItem, error) {
	if p.token != "" {
		items, err := p.fetchWithAuth(ctx, windowDays)
		if err == nil {
			return dedupeByID(items), nil
		}
		p.logger.Warn("authenticated product hunt fetch failed, falling back to public feed",
			logger.Error(err))
	}
	items, err := p.fetchPublicFeed(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	return dedupeByID(items), nil
}

type phNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	VotesCount   int    `json:"votesCount"`
	CommentCount int    `json:"commentsCount"`
	FeaturedAt   string `json:"featuredAt"`
	Website      string `json:"website"`
	Topics       struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"topics"`
}

func (p *ProductHunt) fetchWithAuth(ctx context.Context, windowDays int) ([]CandidateItem, error) {
	postedAfter := time.Now().AddDate(0, 0, -windowDays).Format(time.RFC3339)
	payload, err := json.Marshal(map[string]any{
		"query":     phPostsQuery,
		"variables": map[string]any{"postedAfter": postedAfter},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded struct {
		Data struct {
			Posts struct {
				Edges []struct {
					Node phNode `json:"node"`
				} `json:"edges"`
			} `json:"posts"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", decoded.Errors[0].Message)
	}

	items := make([]CandidateItem, 0, len(decoded.Data.Posts.Edges))
	for _, edge := range decoded.Data.Posts.Edges {
		node := edge.Node
		raw, _ := json.Marshal(node)

		tags := make([]string, 0, len(node.Topics.Edges))
		for _, topicEdge := range node.Topics.Edges {
			tags = append(tags, topicEdge.Node.Name)
		}

		url := node.URL
		if url == "" {
			url = node.Website
		}
		published, _ := time.Parse(time.RFC3339, node.FeaturedAt)

		items = append(items, CandidateItem{
			ID:              node.ID,
			Title:           node.Name,
			Text:            strings.TrimSpace(node.Tagline + " " + node.Description),
			URL:             url,
			EngagementScore: node.VotesCount,
			CommentCount:    node.CommentCount,
			PublishedAt:     published,
			SourceType:      models.SourceProductHunt,
			Tags:            tags,
			Raw:             raw,
		})
	}
	return items, nil
}

func (p *ProductHunt) fetchPublicFeed(ctx context.Context, windowDays int) ([]CandidateItem, error) {
	feed, err := p.feedParser.ParseURLWithContext(p.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public feed: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -windowDays)
	var items []CandidateItem
	for _, entry := range feed.Items {
		published := time.Now()
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		}
		if published.Before(cutoff) {
			continue
		}
		raw, _ := json.Marshal(entry)
		items = append(items, CandidateItem{
			ID:          entry.Link,
			Title:       entry.Title,
			Text:        stripHTML(entry.Description),
			URL:         entry.Link,
			PublishedAt: published,
			SourceType:  models.SourceProductHunt,
			Tags:        entry.Categories,
			Raw:         raw,
		})
	}
	return items, nil
}

// phSuccessKeywords are checked against tagline and description.
var phSuccessKeywords = []string{
	"raised", "funding", "series", "million", "growth", "users",
	"revenue", "milestone", "acquisition", "unicorn", "ipo",
}

// IsSuccessCandidate accepts high engagement or success keywords; launches
// with strong votes are signals on their own.
func (p *ProductHunt) IsSuccessCandidate(item CandidateItem) bool {
	if item.EngagementScore > 100 || item.CommentCount > 20 {
		return true
	}
	return containsAny(item.Text, phSuccessKeywords)
}

// ExtractCompanyName uses the launch name directly; Product Hunt posts are
// named after the product.
func (p *ProductHunt) ExtractCompanyName(item CandidateItem) (string, bool) {
	name := strings.TrimSpace(item.Title)
	if plausibleName(name) {
		return name, true
	}
	return "", false
}
