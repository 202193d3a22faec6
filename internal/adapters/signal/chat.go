package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/aeroplan/collab/internal/core"
	"github.com/aeroplan/collab/internal/domain"
)

// projectID accepts both `"7"` and `7` on the wire and canonicalises
// to the string form rooms are keyed by.
type projectID domain.ProjectID

func (p *projectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = projectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = projectID(n.String())
	return nil
}

func (ctl *Controller) handleStart(ctx context.Context, sid core.SessionID, data []byte) {
	type startPayload struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var p startPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad start payload")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("start")
	ctl.Gateway.Start(ctx, sid, p.Token)
}

func (ctl *Controller) handleChat(ctx context.Context, sid core.SessionID, data []byte) {
	type chatPayload struct {
		Type    string    `json:"type"`
		Project projectID `json:"p_id"`
		Token   string    `json:"token"`
		Text    string    `json:"message_text"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		return
	}
	if p.Text == "" {
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("chat rate limited")
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("project", string(p.Project)).Int("len", len(p.Text)).Msg("chat")
	ctl.Gateway.Chat(ctx, sid, domain.ProjectID(p.Project), p.Token, p.Text)
}

func (ctl *Controller) handlePing(c *wsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(c, resp)
}
