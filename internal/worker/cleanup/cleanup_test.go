package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// fakeResult はsql.Resultのテスト用実装。
type fakeResult struct {
	rowsAffected int64
	rowsErr      error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, r.rowsErr }

// fakeExecutor は発行されたクエリと引数を記録するExecutorのモック。
type fakeExecutor struct {
	query  string
	args   []interface{}
	result sql.Result
	err    error
}

func (e *fakeExecutor) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	e.query = query
	e.args = args
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestCleanupJob_Run_DeletesOldUnfavoritedArticles(t *testing.T) {
	exec := &fakeExecutor{result: fakeResult{rowsAffected: 42}}
	var buf bytes.Buffer
	job := NewCleanupJob(exec, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if !strings.Contains(exec.query, "DELETE FROM articles") {
		t.Errorf("query = %q, want articlesへのDELETE", exec.query)
	}
	if !strings.Contains(exec.query, "NOT EXISTS") || !strings.Contains(exec.query, "favorites") {
		t.Error("お気に入り登録済み記事を除外する条件がクエリに含まれていない")
	}
	if len(exec.args) != 1 || exec.args[0] != "180 days" {
		t.Errorf("args = %v, want デフォルト保持期間 \"180 days\"", exec.args)
	}
	if !strings.Contains(buf.String(), `"deleted_count":42`) {
		t.Errorf("削除件数がログに出力されていない: %s", buf.String())
	}
}

func TestCleanupJob_Run_CustomRetentionDays(t *testing.T) {
	exec := &fakeExecutor{result: fakeResult{}}
	var buf bytes.Buffer
	job := NewCleanupJob(exec, newTestLogger(&buf))
	job.RetentionDays = 30

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if len(exec.args) != 1 || exec.args[0] != "30 days" {
		t.Errorf("args = %v, want \"30 days\"", exec.args)
	}
}

func TestCleanupJob_Run_NoRowsIsSuccess(t *testing.T) {
	exec := &fakeExecutor{result: fakeResult{rowsAffected: 0}}
	var buf bytes.Buffer
	job := NewCleanupJob(exec, newTestLogger(&buf))

	// 削除対象ゼロ件でも冪等に成功する
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestCleanupJob_Run_ExecError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection reset")}
	var buf bytes.Buffer
	job := NewCleanupJob(exec, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("DELETE失敗時にエラーを返すべき")
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("ERRORレベルのログが出力されていない: %s", buf.String())
	}
}

func TestCleanupJob_Run_RowsAffectedError(t *testing.T) {
	exec := &fakeExecutor{result: fakeResult{rowsErr: errors.New("driver does not support")}}
	var buf bytes.Buffer
	job := NewCleanupJob(exec, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("削除件数の取得失敗時にエラーを返すべき")
	}
}
