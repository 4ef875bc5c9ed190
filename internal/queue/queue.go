package queue

import (
	"errors"
	"sync"
)

// Job はワーカーが一度だけ実行する作業単位
type Job func()

var (
	// ErrClosed はクローズ後のキューへ送信した場合に返される
	ErrClosed = errors.New("queue: send on closed queue")

	// ErrNilJob は nil のジョブを送信した場合に返される
	ErrNilJob = errors.New("queue: nil job")
)

// Queue は上限のない FIFO のジョブキュー
// 送信側・受信側ともに複数ゴルーチンから同時に利用できる
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Job
	head   int
	closed bool
}

// New は空のキューを作成する
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send はジョブを末尾に追加し、待機中の受信者を一つ起こす
func (q *Queue) Send(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.items = append(q.items, job)
	q.cond.Signal()
	return nil
}

// Recv はジョブが届くかキューがクローズされるまでブロックする
// クローズ済みの場合は (nil, false) を返す
func (q *Queue) Recv() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Wait はロックを解放して待機するので、他の受信者も同時に待てる
	for !q.closed && q.head == len(q.items) {
		q.cond.Wait()
	}

	if q.closed {
		return nil, false
	}

	job := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// 先頭の空きが半分を超えたら詰め直す
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > len(q.items)/2 {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return job, true
}

// Close はキューをクローズし、待機中の受信者をすべて起こす
// 未取得のジョブは破棄され、その件数を返す。2回目以降は 0 を返す
func (q *Queue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}

	q.closed = true
	dropped := len(q.items) - q.head
	q.items = nil
	q.head = 0
	q.cond.Broadcast()
	return dropped
}

// Closed はキューがクローズ済みかを返す
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len は未取得のジョブ数を返す
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
