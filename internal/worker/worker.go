package worker

import (
	"fmt"
	"sync/atomic"
	"time"

	"yarws/internal/logger"
	"yarws/internal/queue"
)

// State はワーカーの状態
type State int32

const (
	StateRunning State = iota
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Worker は共有キューからジョブを取り出して実行するゴルーチン一つに対応する
type Worker struct {
	id     int
	state  atomic.Int32
	joined atomic.Bool // Join 済みかどうか

	done chan struct{} // ゴルーチン終了時にクローズされる
}

// spawnWorker はワーカーを作成し、spawn でループを起動する
func spawnWorker(id int, jobs *queue.Queue, spawn Spawner, log *logger.Logger, obs Observer) (*Worker, error) {
	done := make(chan struct{})
	w := &Worker{id: id, done: done}

	err := spawn(id, func() {
		w.loop(jobs, done, log, obs)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// loop はキューがクローズされるまでジョブを実行し続ける
func (w *Worker) loop(jobs *queue.Queue, done chan struct{}, log *logger.Logger, obs Observer) {
	defer close(done)

	tag := w.tag()
	obs.WorkerStarted(w.id)
	defer obs.WorkerStopped(w.id)

	for {
		job, ok := jobs.Recv()
		if !ok {
			log.Info(tag, "disconnected; shutting down.")
			return
		}

		log.Info(tag, "got a job; executing.")

		obs.JobStarted(w.id)
		start := time.Now()
		job()
		obs.JobFinished(w.id, time.Since(start))
	}
}

// ID はワーカーの ID を返す
func (w *Worker) ID() int {
	return w.id
}

// State は現在の状態を返す
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Join はワーカーのゴルーチンが終了するまで待つ
// どの呼び出しも終了まで待つが、true を返すのは最初の一回だけ
func (w *Worker) Join() bool {
	<-w.done
	w.state.Store(int32(StateTerminated))
	return w.joined.CompareAndSwap(false, true)
}

func (w *Worker) tag() string {
	return fmt.Sprintf("worker-%d", w.id)
}
