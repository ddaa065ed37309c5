// Package feed はフィード登録・管理のドメインロジックを提供する。
package feed

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/kazuki/feedhub/internal/model"
)

// FeedCandidate はHTMLから検出されたフィード候補を表す。
type FeedCandidate struct {
	URL   string
	Title string
}

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// Detector はフィード自動検出機能を提供する。
// 入力URLがRSS/Atomフィードそのものであればそのまま返し、
// HTMLページであればhead内のlink要素からフィードURLを発見する。
type Detector struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
}

// NewDetector はDetectorの新しいインスタンスを生成する。
func NewDetector(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64) *Detector {
	return &Detector{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// feedContentTypes はフィードとして認識するContent-Typeのリスト。
var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
}

// xmlContentTypes はXMLとして認識するContent-Type（ボディ解析が必要）。
var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// Detect は入力URLからフィードURLを解決する。
// 入力URLが直接フィードの場合はそのURLを返す。
// HTMLページの場合はフィード候補の先頭を返す。
// フィードを検出できない場合はFeedNotDetectedに相当するAPIErrorを返す。
func (d *Detector) Detect(ctx context.Context, inputURL string) (string, error) {
	if err := d.ssrfGuard.ValidateURL(inputURL); err != nil {
		return "", model.NewSSRFBlockedError()
	}

	client := d.ssrfGuard.NewSafeClient(d.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inputURL, nil)
	if err != nil {
		return "", model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "Feedhub/1.0 RSS Reader")

	resp, err := client.Do(req)
	if err != nil {
		return "", model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", model.NewFetchFailedError(resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize))
	if err != nil {
		return "", model.NewFetchFailedError(err.Error())
	}

	if IsDirectFeed(resp.Header.Get("Content-Type"), body) {
		return inputURL, nil
	}

	candidates := ParseFeedLinksFromHTML(body, inputURL)
	if len(candidates) == 0 {
		return "", &model.APIError{
			Code:     model.ErrCodeFeedNotDetected,
			Message:  "指定されたURLからRSS/Atomフィードを検出できませんでした: " + inputURL,
			Category: "feed",
			Action:   "RSS/AtomフィードのURLを直接入力してください。",
		}
	}
	return candidates[0].URL, nil
}

// IsDirectFeed はContent-Typeとボディを解析して、
// レスポンスがRSS/Atomフィードかどうかを判定する。
func IsDirectFeed(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	for _, feedCT := range feedContentTypes {
		if mediaType == feedCT {
			return true
		}
	}

	// 汎用XML Content-Typeの場合はボディ解析で判定する
	for _, xmlCT := range xmlContentTypes {
		if mediaType == xmlCT {
			return isRSSOrAtomXML(body)
		}
	}
	return false
}

// isRSSOrAtomXML はXMLボディの先頭部分を解析してRSS/Atomフィードかを判定する。
func isRSSOrAtomXML(body []byte) bool {
	// 先頭4KBを検査（XMLプロローグ + ルート要素が含まれるのに十分）
	checkSize := 4096
	if len(body) < checkSize {
		checkSize = len(body)
	}
	prefix := strings.ToLower(string(body[:checkSize]))

	if strings.Contains(prefix, "<rss") || strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	return strings.Contains(prefix, "<feed") && strings.Contains(prefix, "http://www.w3.org/2005/atom")
}

// ParseFeedLinksFromHTML はHTMLのheadタグからRSS/Atomフィードリンクを解析・検出する。
// 相対URLはbaseURLを基準に絶対URLに解決される。
func ParseFeedLinksFromHTML(htmlBody []byte, baseURL string) []FeedCandidate {
	var candidates []FeedCandidate

	baseU, err := url.Parse(baseURL)
	if err != nil {
		return candidates
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}
			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return candidates
			}
			if !inHead || tagName != "link" || !hasAttr {
				continue
			}

			var rel, linkType, href, title string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "type":
					linkType = strings.ToLower(string(val))
				case "href":
					href = string(val)
				case "title":
					title = string(val)
				}
				if !more {
					break
				}
			}

			// rel="alternate" かつ RSS/Atom Content-Type のリンクのみ対象
			if rel != "alternate" || href == "" {
				continue
			}
			if linkType != "application/rss+xml" && linkType != "application/atom+xml" {
				continue
			}

			resolved := resolveURL(baseU, href)
			if resolved == "" {
				continue
			}

			candidates = append(candidates, FeedCandidate{
				URL:   resolved,
				Title: title,
			})

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return candidates
			}
		}
	}
}

// resolveURL は相対URLをベースURLを基準に絶対URLに解決する。
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
