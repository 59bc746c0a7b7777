package signal

import (
	"context"
	"time"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(ctl.settings.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.settings.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.settings.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sess *core.Session, c *WsSignalConn) {
	sid := sess.ID()
	defer func() {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.settings.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.settings.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.settings.PongWait))
		ctl.handleSignal(ctx, sess, data)
	}
}

// handleSignal routes one inbound message. Errors go back to the sender as
// error events; none of them closes the connection.
func (ctl *SignalWSController) handleSignal(ctx context.Context, sess *core.Session, data []byte) {
	var env core.Envelope
	if err := decode(data, &env); err != nil {
		ctl.Orch.ReplyError(sess, err)
		return
	}

	var err error
	switch env.Type {
	case core.RequestAuthenticate:
		err = ctl.handleAuthenticate(ctx, sess, data)
	case core.RequestJoinPoll:
		err = ctl.handleJoin(ctx, sess, data)
	case core.RequestLeavePoll:
		err = ctl.Orch.LeavePoll(ctx, sess)
	case core.RequestCastVote:
		err = ctl.handleCastVote(ctx, sess, data)
	case core.RequestPing:
		ctl.handlePing(sess)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		err = domain.Invalid("unknown message type %q", env.Type)
	}
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Str("type", env.Type).Msg("request failed")
		}
		ctl.Orch.ReplyError(sess, err)
	}
}

// decode unmarshals and validates an inbound payload.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Invalid("malformed json")
	}
	if err := validate.Struct(v); err != nil {
		return domain.Invalid("%s", describe(err))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid payload"
	}
	fe := verrs[0]
	return fe.Field() + " failed " + fe.Tag()
}
