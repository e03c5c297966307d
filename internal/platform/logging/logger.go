// Package logging はプロジェクト全体で利用する構造化ロガーのインターフェースを定義します。
package logging

import "context"

// Logger はコンテキスト付きの構造化ロガーです。
//
// 可変長引数はキーと値の組として解釈されます。
//
//	log.Info(ctx, "server started", "addr", addr)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With は指定したキーと値を常に付与する子ロガーを返します。
	With(args ...any) Logger
}
