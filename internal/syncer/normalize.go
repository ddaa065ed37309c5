package syncer

import (
	"github.com/kazuki/feedhub/internal/model"
	"github.com/kazuki/feedhub/internal/security"
)

// noTitlePlaceholder はタイトルを持たないエントリに与えるプレースホルダ。
const noTitlePlaceholder = "No title"

// Normalizer はパース済みエントリを保存可能な記事レコードに変換する。
// I/Oを行わず、同一入力に対して常に同一出力を返す。
type Normalizer struct {
	sanitizer security.ContentSanitizerService
}

// NewNormalizer はNormalizerの新しいインスタンスを生成する。
func NewNormalizer(sanitizer security.ContentSanitizerService) *Normalizer {
	return &Normalizer{sanitizer: sanitizer}
}

// Normalize はエントリ列を指定フィードの記事レコードに変換する。
//
// 同一性キーの選択: エントリのlinkを採用し、欠落している場合はGUIDに
// フォールバックする。linkもGUIDも持たないエントリは同一性キーを
// 構成できないため除外する（同一性キーの一意性不変条件を守るための明示的な方針）。
//
// タイトルが欠落しているエントリにはプレースホルダを与える。
// HTMLコンテンツと説明文はサニタイズしてから保存する。
func (n *Normalizer) Normalize(feedID int64, entries []model.ParsedEntry) []*model.Article {
	articles := make([]*model.Article, 0, len(entries))

	for _, entry := range entries {
		link := entry.Link
		if link == "" {
			link = entry.GUID
		}
		if link == "" {
			continue
		}

		title := entry.Title
		if title == "" {
			title = noTitlePlaceholder
		}

		articles = append(articles, &model.Article{
			FeedID:      feedID,
			Link:        link,
			Title:       title,
			Description: n.sanitizer.Sanitize(entry.Description),
			Content:     n.sanitizer.Sanitize(entry.Content),
			Author:      entry.Author,
			PublishedAt: entry.PublishedAt,
		})
	}

	return articles
}
