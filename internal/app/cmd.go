package app

// Command はfeedhubバイナリの起動モードを表す。
// 1つのバイナリがAPIサーバー・ワーカー・マイグレーションを兼ねる。
type Command string

const (
	// CommandServe はREST APIサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker は定期同期スケジューラとクリーンアップジョブを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は/healthエンドポイントへの疎通確認を行って終了する。
	// シェルを持たないコンテナイメージのヘルスチェックに使用する。
	CommandHealthcheck Command = "healthcheck"
)

// knownCommands はサポートするサブコマンドの集合。
var knownCommands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は先頭のコマンドライン引数をサブコマンドとして解釈する。
// 引数がない場合と未知のコマンドの場合はCommandServeにフォールバックする。
// 2つ目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
