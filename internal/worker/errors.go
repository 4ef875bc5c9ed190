package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize はプールサイズが 1 未満の場合の種別
	ErrInvalidSize = errors.New("worker: pool size must be >= 1")

	// ErrSpawnFailure はワーカーの起動に失敗した場合の種別
	ErrSpawnFailure = errors.New("worker: failed to spawn worker")
)

// BuildError はプール構築の失敗を表す
// Kind は ErrInvalidSize か ErrSpawnFailure のいずれか
type BuildError struct {
	Kind error
	Size int   // 要求されたプールサイズ
	ID   int   // 起動に失敗したワーカーの ID（InvalidSize の場合は -1）
	Err  error // 起動失敗の原因
}

func (e *BuildError) Error() string {
	if e.Kind == ErrSpawnFailure {
		return fmt.Sprintf("%v %d of %d: %v", e.Kind, e.ID, e.Size, e.Err)
	}
	return fmt.Sprintf("%v (got %d)", e.Kind, e.Size)
}

// Is は errors.Is で Kind と比較できるようにする
func (e *BuildError) Is(target error) bool {
	return target == e.Kind
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Retryable は呼び出し側が再試行してよい失敗かを返す
func (e *BuildError) Retryable() bool {
	return e.Kind == ErrSpawnFailure
}
