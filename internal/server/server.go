package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"yarws/internal/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/net/netutil"
)

// ステータス行とルーティング対象のリクエスト行
const (
	StatusOK          = "HTTP/1.1 200 OK"
	StatusNotFound    = "HTTP/1.1 404 NOT FOUND"
	StatusServerError = "HTTP/1.1 500 INTERNAL SERVER ERROR"

	RequestRoot  = "GET / HTTP/1.1"
	RequestSleep = "GET /sleep HTTP/1.1"
)

// MaxRequestLine はリクエスト行として読み込む最大バイト数
const MaxRequestLine = 8 << 10

// ErrRequestLineTooLong はリクエスト行が MaxRequestLine を超えた場合に返される
var ErrRequestLineTooLong = errors.New("request line too long")

// accept 失敗時の再試行間隔
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Executor は接続の処理を引き受けるジョブ実行器
// worker.Pool が満たす
type Executor interface {
	Execute(job func())
}

// Options はサーバーの設定
type Options struct {
	IndexPath      string
	NotFoundPath   string
	SleepDelay     time.Duration
	ReadTimeout    time.Duration // 0 でタイムアウトなし
	MaxConnections int           // 0 で無制限
}

// Server は受け付けた接続を一つずつ Executor に投入する
type Server struct {
	opts Options
	exec Executor
	log  *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New は新しいサーバーを作成する
func New(exec Executor, opts Options, log *logger.Logger) *Server {
	return &Server{
		opts: opts,
		exec: exec,
		log:  logger.OrDefault(log),
	}
}

// ListenAndServe は addr で待ち受けて Serve する
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve は ctx がキャンセルされるまで接続を受け付ける
// 戻った時点でリスナーはクローズされている。投入済みのジョブの完了は待たない
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConnections)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
	}()

	s.log.Info("server", "listening on %s", ln.Addr())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("server", "stopped accepting connections")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Wrap(err, "accept")
			}

			// EMFILE などは一時的なものとして待ってから再試行する
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}
			s.log.Warn("server", "accept error: %v; retrying in %v", err, delay)

			select {
			case <-ctx.Done():
				s.log.Info("server", "stopped accepting connections")
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		s.exec.Execute(func() {
			s.serveConn(conn)
		})
	}
}

// Addr は待ち受け中のアドレスを返す。Serve 前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serveConn(conn net.Conn) {
	tag := "conn-" + uuid.NewString()[:8]
	defer conn.Close()

	if err := s.HandleConn(conn); err != nil {
		s.log.Warn(tag, "%v", err)
		return
	}
	s.log.Debug(tag, "served %s", conn.RemoteAddr())
}

// HandleConn はリクエスト行を一行読み、応答を書き込む
func (s *Server) HandleConn(conn net.Conn) error {
	if s.opts.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			return errors.Wrap(err, "set read deadline")
		}
	}

	line, err := ReadRequestLine(conn)
	if err != nil {
		return err
	}

	status, page, sleep := Route(line)
	if sleep && s.opts.SleepDelay > 0 {
		time.Sleep(s.opts.SleepDelay)
	}

	path := s.opts.IndexPath
	if page == PageNotFound {
		path = s.opts.NotFoundPath
	}

	body, err := os.ReadFile(path)
	if err != nil {
		_, _ = conn.Write(BuildResponse(StatusServerError, nil))
		return errors.Wrapf(err, "read page for %q", line)
	}

	if _, err := conn.Write(BuildResponse(status, body)); err != nil {
		return errors.Wrap(err, "write response")
	}
	return nil
}

// Page は応答に使う静的ページ
type Page int

const (
	PageIndex Page = iota
	PageNotFound
)

// ReadRequestLine は最初の行を CRLF を除いて返す
// MaxRequestLine バイト以内に改行がなければ ErrRequestLineTooLong を返す
func ReadRequestLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(io.LimitReader(r, MaxRequestLine)).ReadString('\n')
	if err == io.EOF && len(line) >= MaxRequestLine {
		return "", ErrRequestLineTooLong
	}
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(err, "read request line")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Route はリクエスト行からステータス行とページを決める
func Route(requestLine string) (status string, page Page, sleep bool) {
	switch requestLine {
	case RequestRoot:
		return StatusOK, PageIndex, false
	case RequestSleep:
		return StatusOK, PageIndex, true
	default:
		return StatusNotFound, PageNotFound, false
	}
}

// BuildResponse はステータス行・ヘッダ・本文から応答を組み立てる
func BuildResponse(status string, body []byte) []byte {
	header := fmt.Sprintf(
		"%s\r\nContent-Type: text/html; charset=UTF-8\r\nContent-Length: %d\r\n\r\n",
		status, len(body),
	)
	return append([]byte(header), body...)
}
