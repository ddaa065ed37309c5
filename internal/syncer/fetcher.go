// Package syncer はフィード同期エンジンを提供する。
// フェッチャー、ノーマライザ、同期ゲート、単一フィード同期、
// グローバル同期とそのスケジューラを含む。
package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/kazuki/feedhub/internal/model"
)

// HTTPClientFactory はフェッチに使用するHTTPクライアント生成のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type HTTPClientFactory interface {
	NewSafeClient(timeout time.Duration) *http.Client
}

// Fetcher は個別フィードのHTTPフェッチとRSS/Atomパースを行う。
// ローカル状態を持たず、1回の呼び出しにつき1回のアウトバウンドリクエストを行う。
// リトライはこの層では行わず、失敗は型付きエラーとして呼び出し側に伝播する。
type Fetcher struct {
	clients     HTTPClientFactory
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(clients HTTPClientFactory, logger *slog.Logger, timeout time.Duration, maxBodySize int64) *Fetcher {
	return &Fetcher{
		clients:     clients,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch はフィードURLを取得し、パース済みエントリの列を返す。
// ネットワーク障害・非2xxステータスはmodel.FetchError、
// RSS/Atomとして解析できないボディはmodel.ParseErrorとして
// 発生箇所でエラー種別を確定させる。
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]model.ParsedEntry, error) {
	start := time.Now()

	client := f.clients.NewSafeClient(f.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &model.FetchError{URL: feedURL, Err: err}
	}

	req.Header.Set("User-Agent", "Feedhub/1.0 RSS Reader")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Error("HTTPリクエストに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("フィードフェッチが非成功ステータスを返しました",
			slog.String("feed_url", feedURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &model.FetchError{
			URL: feedURL,
			Err: fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode),
		}
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &model.FetchError{URL: feedURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	// パーサーは呼び出しごとに生成する。共有の可変パーサー設定を持たないため、
	// 並行フェッチ間で隠れた状態を共有しない。
	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		f.logger.Error("フィードのパースに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.ParseError{URL: feedURL, Err: err}
	}

	entries := convertGofeedItems(parsedFeed.Items)

	f.logger.Info("フィードフェッチが完了しました",
		slog.String("feed_url", feedURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("entry_count", len(entries)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return entries, nil
}

// convertGofeedItems はgofeedの記事をmodel.ParsedEntryに変換する。
func convertGofeedItems(items []*gofeed.Item) []model.ParsedEntry {
	entries := make([]model.ParsedEntry, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		entry := model.ParsedEntry{
			Link:        item.Link,
			GUID:        item.GUID,
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
		}

		// 著者情報
		if item.Author != nil {
			entry.Author = item.Author.Name
		}
		if entry.Author == "" && len(item.Authors) > 0 && item.Authors[0] != nil {
			entry.Author = item.Authors[0].Name
		}

		// 公開日時: gofeedが解析済みの値のみを採用し、
		// 解析不能な日付文字列はnilのまま扱う
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			entry.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			entry.PublishedAt = &t
		}

		// Contentが空の場合はDescriptionを使用
		if entry.Content == "" && item.Description != "" {
			entry.Content = item.Description
		}

		entries = append(entries, entry)
	}

	return entries
}
