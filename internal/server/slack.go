package server

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

type slackEventBody struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	Event     slackEvent `json:"event"`
}

type slackEvent struct {
	Type    string `json:"type"`
	User    string `json:"user"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

var mentionPattern = regexp.MustCompile(`<@[A-Za-z0-9]+>`)

// handleSlackEvent implements the Slack Events API contract: echo the
// URL verification challenge, acknowledge everything else with 200
// before doing any real work, and answer mentions from a background
// goroutine so Slack never retries a slow run.
func (s *Server) handleSlackEvent(w http.ResponseWriter, r *http.Request) {
	var body slackEventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}

	switch body.Type {
	case "url_verification":
		s.writeJSON(w, http.StatusOK, map[string]string{"challenge": body.Challenge})
		return
	case "event_callback":
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	// Slack retries delivery when the first ack was slow; the first
	// delivery is already being processed.
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		s.logger.Info("slack retry ignored", "reason", r.Header.Get("X-Slack-Retry-Reason"))
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "retry ignored"})
		return
	}
	if s.botUserID != "" && body.Event.User == s.botUserID {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "self-message ignored"})
		return
	}

	if body.Event.Type == "app_mention" {
		if question := s.stripMention(body.Event.Text); question != "" {
			s.processMention(body.Event.Channel, question)
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stripMention(text string) string {
	if s.botUserID != "" {
		text = strings.ReplaceAll(text, "<@"+s.botUserID+">", "")
	} else {
		text = mentionPattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// processMention answers a mention after the event is acknowledged.
// The channel doubles as the conversation thread, so follow-up
// mentions in one channel share history.
func (s *Server) processMention(channel, question string) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		reply, err := s.runProcessor(ctx, channel, question)
		if err != nil {
			s.logger.Error("processing slack mention failed", "channel", channel, "error", err)
			return
		}
		if s.notifier == nil {
			s.logger.Warn("no notifier configured, dropping slack reply", "channel", channel)
			return
		}
		if err := s.notifier.Notify(ctx, channel, reply); err != nil {
			s.logger.Error("posting slack reply failed", "channel", channel, "error", err)
		}
	}()
}
