package syncer

import "time"

// MinSyncInterval は同一フィードの再同期を許可する最小間隔。
// エンジン固定のパラメータであり、ユーザー設定では変更できない。
const MinSyncInterval = 5 * time.Minute

// GateDecision は同期ゲートの判定結果を表す。
type GateDecision struct {
	Eligible  bool
	Remaining time.Duration // 不適格の場合の残り待機時間。適格の場合は0。
}

// EvaluateGate はフィードが今同期可能かを判定する。
// forceフラグが立っているか、一度も同期されていないか、
// 前回同期からMinSyncInterval以上経過していれば適格。
// 不適格の場合はユーザー向けメッセージのために残り待機時間を返す。
// 純粋な判定関数であり、フィードの状態を変更しない。
func EvaluateGate(lastSyncedAt *time.Time, force bool, now time.Time) GateDecision {
	if force || lastSyncedAt == nil {
		return GateDecision{Eligible: true}
	}

	elapsed := now.Sub(*lastSyncedAt)
	if elapsed >= MinSyncInterval {
		return GateDecision{Eligible: true}
	}

	return GateDecision{
		Eligible:  false,
		Remaining: MinSyncInterval - elapsed,
	}
}
