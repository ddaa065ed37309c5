package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTypedErrors_ErrorsAs(t *testing.T) {
	// ラップを挟んでも errors.As で型が取り出せること
	base := errors.New("network down")

	var fetchErr *FetchError
	wrapped := fmt.Errorf("sync failed: %w", &FetchError{URL: "https://example.com/feed", Err: base})
	if !errors.As(wrapped, &fetchErr) {
		t.Fatal("FetchError が errors.As で取り出せない")
	}
	if fetchErr.URL != "https://example.com/feed" {
		t.Errorf("URL = %q", fetchErr.URL)
	}
	if !errors.Is(wrapped, base) {
		t.Error("FetchError は原因エラーをUnwrapすべき")
	}

	var parseErr *ParseError
	if !errors.As(&ParseError{URL: "u", Err: base}, &parseErr) {
		t.Error("ParseError が errors.As で取り出せない")
	}

	var dbErr *DatabaseError
	if !errors.As(&DatabaseError{Op: "insert", Err: base}, &dbErr) {
		t.Error("DatabaseError が errors.As で取り出せない")
	}
	if !errors.Is(&DatabaseError{Op: "insert", Err: base}, base) {
		t.Error("DatabaseError は原因エラーをUnwrapすべき")
	}
}

func TestRateLimitedError_Message(t *testing.T) {
	err := &RateLimitedError{FeedID: 7, Remaining: 90 * time.Second}
	if err.Error() == "" {
		t.Error("エラーメッセージは空であってはならない")
	}
}

func TestAPIError_ErrorInterface(t *testing.T) {
	apiErr := NewFeedNotFoundError(42)

	var target *APIError
	if !errors.As(error(apiErr), &target) {
		t.Fatal("APIError が errors.As で取り出せない")
	}
	if target.Code != ErrCodeFeedNotFound {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeFeedNotFound)
	}
	if target.Message == "" || target.Action == "" {
		t.Error("Message と Action は設定されるべき")
	}
}

func TestNewSyncTooRecentError_IncludesRemaining(t *testing.T) {
	apiErr := NewSyncTooRecentError(3 * time.Minute)
	if apiErr.Code != ErrCodeSyncTooRecent {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message == "" {
		t.Error("Message は空であってはならない")
	}
}
