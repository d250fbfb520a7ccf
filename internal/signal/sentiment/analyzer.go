// Package sentiment derives a market-mood signal from the Fear & Greed
// index and crypto news vote sentiment.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Config holds sentiment analyzer configuration
type Config struct {
	FearGreedURL      string `json:"fear_greed_url"`
	CryptoPanicURL    string `json:"cryptopanic_url"`
	CryptoPanicAPIKey string `json:"cryptopanic_api_key"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		FearGreedURL:   "https://api.alternative.me/fng/",
		CryptoPanicURL: "https://cryptopanic.com/api/v1/posts/",
	}
}

// Analysis represents aggregated sentiment for a symbol
type Analysis struct {
	Symbol         string    `json:"symbol"`
	Score          float64   `json:"score"` // -1 (very bearish) to +1 (very bullish)
	FearGreedIndex int       `json:"fearGreedIndex"`
	FearGreedLabel string    `json:"fearGreedLabel"`
	NewsScore      float64   `json:"newsScore"`
	SourceCount    int       `json:"sourceCount"`
	Summary        string    `json:"summary"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FearGreedResponse from alternative.me API
type FearGreedResponse struct {
	Name string `json:"name"`
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// NewsItem represents a scored news article
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Sentiment   float64   `json:"sentiment"` // -1 to +1
	PublishedAt time.Time `json:"published_at"`
}

// Analyzer fetches and scores sentiment data
type Analyzer struct {
	config     Config
	httpClient *http.Client
	mu         sync.RWMutex
	newsCache  map[string][]NewsItem
}

func NewAnalyzer(config Config) *Analyzer {
	if config.FearGreedURL == "" {
		config.FearGreedURL = DefaultConfig().FearGreedURL
	}
	if config.CryptoPanicURL == "" {
		config.CryptoPanicURL = DefaultConfig().CryptoPanicURL
	}
	return &Analyzer{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		newsCache: make(map[string][]NewsItem),
	}
}

// Analyze fetches Fear & Greed and news sentiment for a symbol and
// combines them 70/30. News is optional; the index alone still yields
// an analysis, but a missing index is an error.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	fgIndex, fgLabel, err := a.fetchFearGreedIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching fear/greed index: %w", err)
	}

	sourceCount := 1
	newsScore := 0.0
	hasNews := false

	if a.config.CryptoPanicAPIKey != "" {
		news, err := a.fetchNews(ctx, symbol)
		if err == nil && len(news) > 0 {
			newsScore = calculateNewsScore(news)
			hasNews = true
			sourceCount += len(news)
			a.mu.Lock()
			a.newsCache[symbol] = news
			a.mu.Unlock()
		}
	}

	score := combineScores(fgIndex, newsScore, hasNews)

	return &Analysis{
		Symbol:         symbol,
		Score:          score,
		FearGreedIndex: fgIndex,
		FearGreedLabel: fgLabel,
		NewsScore:      newsScore,
		SourceCount:    sourceCount,
		Summary:        Summarize(score),
		UpdatedAt:      time.Now().UTC(),
	}, nil
}

// RecentNews returns cached news items for a symbol, most recent first
func (a *Analyzer) RecentNews(symbol string, limit int) []NewsItem {
	a.mu.RLock()
	defer a.mu.RUnlock()

	news := a.newsCache[symbol]
	if len(news) <= limit {
		return news
	}
	return news[:limit]
}

func (a *Analyzer) fetchFearGreedIndex(ctx context.Context) (int, string, error) {
	endpoint := a.config.FearGreedURL + "?limit=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to fetch fear/greed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response: %w", err)
	}

	var fgResp FearGreedResponse
	if err := json.Unmarshal(body, &fgResp); err != nil {
		return 0, "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(fgResp.Data) == 0 {
		return 0, "", fmt.Errorf("no data in fear/greed response")
	}

	var value int
	fmt.Sscanf(fgResp.Data[0].Value, "%d", &value)

	return value, fgResp.Data[0].ValueClassification, nil
}

func (a *Analyzer) fetchNews(ctx context.Context, symbol string) ([]NewsItem, error) {
	endpoint := fmt.Sprintf("%s?auth_token=%s&currencies=%s&filter=hot",
		a.config.CryptoPanicURL,
		url.QueryEscape(a.config.CryptoPanicAPIKey),
		url.QueryEscape(baseCurrency(symbol)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Results []struct {
			Title  string `json:"title"`
			Source struct {
				Title string `json:"title"`
			} `json:"source"`
			URL         string `json:"url"`
			PublishedAt string `json:"published_at"`
			Votes       struct {
				Positive int `json:"positive"`
				Negative int `json:"negative"`
			} `json:"votes"`
		} `json:"results"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse news: %w", err)
	}

	news := make([]NewsItem, 0, len(result.Results))
	for _, item := range result.Results {
		totalVotes := item.Votes.Positive + item.Votes.Negative
		sentiment := 0.0
		if totalVotes > 0 {
			sentiment = float64(item.Votes.Positive-item.Votes.Negative) / float64(totalVotes)
		}

		publishedAt, _ := time.Parse(time.RFC3339, item.PublishedAt)

		news = append(news, NewsItem{
			Title:       item.Title,
			Source:      item.Source.Title,
			URL:         item.URL,
			Sentiment:   sentiment,
			PublishedAt: publishedAt,
		})
	}

	return news, nil
}

// calculateNewsScore weights recent articles more heavily
func calculateNewsScore(news []NewsItem) float64 {
	if len(news) == 0 {
		return 0
	}

	now := time.Now()
	totalWeight := 0.0
	weightedSum := 0.0

	for _, item := range news {
		age := now.Sub(item.PublishedAt).Hours()
		weight := 1.0
		if age < 1 {
			weight = 2.0
		} else if age < 6 {
			weight = 1.5
		} else if age > 24 {
			weight = 0.5
		}

		weightedSum += item.Sentiment * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

func combineScores(fearGreedIndex int, newsScore float64, hasNews bool) float64 {
	// Fear/greed (0-100) normalized to -1..+1
	fgNormalized := (float64(fearGreedIndex) - 50) / 50

	if hasNews {
		return fgNormalized*0.7 + newsScore*0.3
	}
	return fgNormalized
}

// Summarize maps a sentiment score to a human-readable band
func Summarize(score float64) string {
	switch {
	case score > 0.5:
		return "Extreme bullish sentiment across social media and news outlets."
	case score > 0.1:
		return "Moderately positive sentiment, with growing retail interest."
	case score > -0.1:
		return "Neutral market sentiment, waiting for a catalyst."
	case score > -0.5:
		return "Slightly negative sentiment, caution advised."
	default:
		return "Overwhelmingly bearish sentiment, fear in the market."
	}
}

func baseCurrency(symbol string) string {
	for _, quote := range []string{"USDT", "BUSD", "USDC", "BTC", "ETH"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote)
		}
	}
	return symbol
}
