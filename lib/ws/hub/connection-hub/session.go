package connectionhub

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Conn is the part of *websocket.Conn the hub writes to
type Conn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

const sendBufferSize = 16

type clientSession struct {
	conn Conn

	// outbound messages, dropped when the buffer is full
	sendCh   chan any
	// called after a message is written to the connection
	onSent   func(msg any)
	cancel   func()
	stopOnce sync.Once
}

func newSession(conn Conn, onSent func(msg any)) *clientSession {
	ctx, cancelFn := context.WithCancel(context.Background())
	sess := &clientSession{
		cancel: cancelFn,
		conn:   conn,
		sendCh: make(chan any, sendBufferSize),
		onSent: onSent,
	}
	go sess.startSend(ctx)
	return sess
}

func (s *clientSession) enqueue(msg any) bool {
	select {
	case s.sendCh <- msg:
		return true
	default:
		log.Warn("ws send buffer is full, message dropped")
		return false
	}
}

func (s *clientSession) stop() {
	s.stopOnce.Do(s.cancel)
}

func (s *clientSession) startSend(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case msg := <-s.sendCh:
			if err := s.send(msg); err != nil {
				log.WithError(err).Error("ws message send failed")
				continue
			}
			if s.onSent != nil {
				s.onSent(msg)
			}
		}
	}
}

func (s *clientSession) send(msg interface{}) error {
	if s.conn == nil {
		return errors.New("no connection")
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return err
	}
	log.Debugf("ws message sent: %+v", msg)
	return nil
}

func (s *clientSession) close() {
	if s.conn == nil {
		return
	}
	err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	if err != nil {
		log.WithError(err).Debug("ws close failed")
	}
}
