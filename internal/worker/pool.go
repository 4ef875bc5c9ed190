package worker

import (
	"fmt"
	"sync"
	"time"

	"yarws/internal/logger"
	"yarws/internal/queue"
)

// Spawner は run を新しい実行単位で起動する
// 起動に失敗した場合はエラーを返し、run は呼ばれてはならない
type Spawner func(id int, run func()) error

// GoSpawner は run をゴルーチンで起動する。失敗しない
func GoSpawner(_ int, run func()) error {
	go run()
	return nil
}

// Observer はプールのライフサイクルを観測するフック
type Observer interface {
	WorkerStarted(workerID int)
	WorkerStopped(workerID int)
	JobSubmitted()
	JobStarted(workerID int)
	JobFinished(workerID int, d time.Duration)
	JobsDiscarded(n int)
}

type nopObserver struct{}

func (nopObserver) WorkerStarted(int)              {}
func (nopObserver) WorkerStopped(int)              {}
func (nopObserver) JobSubmitted()                  {}
func (nopObserver) JobStarted(int)                 {}
func (nopObserver) JobFinished(int, time.Duration) {}
func (nopObserver) JobsDiscarded(int)              {}

type options struct {
	log     *logger.Logger
	spawner Spawner
	obs     Observer
}

// Option はプールの構築オプション
type Option func(*options)

// WithLogger は診断ログの出力先を指定する
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithSpawner はワーカーの起動方法を差し替える
func WithSpawner(s Spawner) Option {
	return func(o *options) {
		o.spawner = s
	}
}

// WithObserver はライフサイクルフックを登録する
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.obs = obs
	}
}

// Pool は固定数のワーカーと共有ジョブキューを管理する
type Pool struct {
	workers []*Worker
	jobs    *queue.Queue
	log     *logger.Logger
	obs     Observer

	shutdownOnce sync.Once
}

// Build は size 個のワーカーを持つプールを作成する
// size が 1 未満なら ErrInvalidSize、ワーカーの起動に失敗したら
// ErrSpawnFailure の BuildError を返す。失敗時は起動済みのワーカーを
// すべて終了させてから戻る
func Build(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, &BuildError{Kind: ErrInvalidSize, Size: size, ID: -1}
	}

	o := options{spawner: GoSpawner, obs: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.spawner == nil {
		o.spawner = GoSpawner
	}
	if o.obs == nil {
		o.obs = nopObserver{}
	}

	p := &Pool{
		workers: make([]*Worker, 0, size),
		jobs:    queue.New(),
		log:     logger.OrDefault(o.log),
		obs:     o.obs,
	}

	for id := range size {
		w, err := spawnWorker(id, p.jobs, o.spawner, p.log, p.obs)
		if err != nil {
			p.log.Error("pool", "failed to spawn worker %d: %v", id, err)
			p.Shutdown()
			return nil, &BuildError{Kind: ErrSpawnFailure, Size: size, ID: id, Err: err}
		}
		p.workers = append(p.workers, w)
	}

	p.log.Info("pool", "started with %d workers", size)
	return p, nil
}

// MustBuild は Build と同じだが、失敗した場合は panic する
func MustBuild(size int, opts ...Option) *Pool {
	p, err := Build(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Execute はジョブをキューに投入してすぐに戻る
// Shutdown 後の呼び出しや nil ジョブはプログラミングエラーとして panic する
func (p *Pool) Execute(job func()) {
	if err := p.jobs.Send(job); err != nil {
		panic(fmt.Errorf("worker: execute: %w", err))
	}
	p.obs.JobSubmitted()
}

// Shutdown はキューをクローズし、全ワーカーを構築順に Join する
// 全ワーカーの終了を待ってから戻る。2回目以降の呼び出しは何もしない
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(func() {
		if dropped := p.jobs.Close(); dropped > 0 {
			p.log.Warn("pool", "discarding %d queued jobs", dropped)
			p.obs.JobsDiscarded(dropped)
		}

		for _, w := range p.workers {
			p.log.Info("pool", "shutting down worker %d", w.ID())
			w.Join()
		}

		p.log.Info("pool", "all workers stopped")
	})
}

// Close は io.Closer 用の Shutdown
func (p *Pool) Close() error {
	p.Shutdown()
	return nil
}

// Size はワーカー数を返す
func (p *Pool) Size() int {
	return len(p.workers)
}

// Workers はワーカーの一覧を構築順で返す
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Pending はまだ取り出されていないジョブ数を返す
func (p *Pool) Pending() int {
	return p.jobs.Len()
}
