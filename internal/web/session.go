package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/time/rate"

	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
	"github.com/Kingvic300/Inkluziv--wallet/internal/pipeline"
	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/stt"
)

const (
	// outboxSize bounds the frames queued for one connection. The pipeline
	// never waits for the network; frames beyond this are dropped.
	outboxSize = 256

	writeTimeout = 5 * time.Second
)

// session is one browser connection. It is the controller's recogniser,
// speaker, navigator and feedback sink at once: everything the pipeline
// emits is queued as a frame for the browser.
type session struct {
	id   string
	conn *websocket.Conn
	log  *slog.Logger

	rec     *remoteRecognizer
	ctrl    *pipeline.Controller
	limiter *rate.Limiter

	out  chan any
	done chan struct{}
}

func newSession(id string, conn *websocket.Conn, log *slog.Logger, limiter *rate.Limiter) *session {
	s := &session{
		id:      id,
		conn:    conn,
		log:     log.With("session_id", id),
		limiter: limiter,
		out:     make(chan any, outboxSize),
		done:    make(chan struct{}),
	}
	s.rec = newRemoteRecognizer(s.send)
	return s
}

// send queues v for the browser. It never blocks and reports false when the
// frame was not queued.
func (s *session) send(v any) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- v:
		return true
	default:
		s.log.Warn("web: outbox full, dropping frame")
		return false
	}
}

// Announce implements [feedback.Sink].
func (s *session) Announce(message string) {
	s.send(announceFrame{Type: TypeAnnounce, Message: message})
}

// Status implements [feedback.Sink].
func (s *session) Status(st feedback.Status) {
	s.send(statusFrame{Type: TypeStatus, Kind: st.Kind.String(), Detail: st.Detail})
}

// Speak implements tts.Speaker by asking the browser to synthesise text.
func (s *session) Speak(_ context.Context, text string) error {
	if !s.send(speakFrame{Type: TypeSpeak, Text: text}) {
		return errSessionGone
	}
	return nil
}

// Navigate implements dispatch.Navigator.
func (s *session) Navigate(_ context.Context, route string) error {
	if !s.send(navigateFrame{Type: TypeNavigate, Route: route}) {
		return errSessionGone
	}
	return nil
}

// observe publishes controller state changes.
func (s *session) observe(st pipeline.State) {
	s.send(s.stateFrame(st))
}

func (s *session) stateFrame(st pipeline.State) stateFrame {
	return stateFrame{
		Type:         TypeState,
		SessionID:    s.id,
		Listening:    st.Listening,
		Processing:   st.Processing,
		Transcript:   st.Transcript,
		Enabled:      st.Enabled,
		DialogueStep: st.Dialogue.Step.String(),
	}
}

// writeLoop drains the outbox until ctx is cancelled.
func (s *session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-s.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, s.conn, v)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					s.log.Debug("web: write failed", "err", err)
				}
				return
			}
		}
	}
}

// readLoop handles browser frames until the connection closes.
func (s *session) readLoop(ctx context.Context) error {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !s.limiter.Allow() {
			s.send(errorFrame{Type: TypeError, Message: "rate limited"})
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(errorFrame{Type: TypeError, Message: "malformed message"})
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *session) handle(ctx context.Context, msg clientMessage) {
	var err error
	switch msg.Type {
	case TypeHello:
		supported := msg.Supported == nil || *msg.Supported
		s.rec.supported.Store(supported)
		if msg.VoiceEnabled != nil {
			err = s.ctrl.SetEnabled(ctx, *msg.VoiceEnabled)
		}
		if err == nil {
			var st pipeline.State
			if st, err = s.ctrl.State(ctx); err == nil {
				s.observe(st)
			}
		}

	case TypeStart:
		err = s.ctrl.Start(ctx)

	case TypeStop:
		err = s.ctrl.Stop(ctx)

	case TypeToggle:
		err = s.ctrl.Toggle(ctx)

	case TypeExecute:
		err = s.ctrl.Execute(ctx, msg.Text)

	case TypeResult:
		s.rec.deliver(stt.Event{Kind: stt.EventResult, Result: stt.Result{
			Transcript: msg.Transcript,
			Confidence: msg.Confidence,
			IsFinal:    msg.IsFinal,
		}})

	case TypeError:
		s.rec.deliver(stt.Event{Kind: stt.EventError, Err: stt.NewRecognitionError(msg.Error)})

	case TypeEnd:
		s.rec.deliver(stt.Event{Kind: stt.EventEnd})

	case TypeSpeechStart:
		s.rec.deliver(stt.Event{Kind: stt.EventStart})

	default:
		s.send(errorFrame{Type: TypeError, Message: "unknown message type " + msg.Type})
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrUnsupported), errors.Is(err, pipeline.ErrDisabled):
		// Already announced by the controller.
	case errors.Is(err, pipeline.ErrBusy):
		s.send(errorFrame{Type: TypeError, Message: "busy processing a command"})
	default:
		s.log.Warn("web: message failed", "type", msg.Type, "err", err)
	}
}

// close stops queueing frames.
func (s *session) close() {
	close(s.done)
}
