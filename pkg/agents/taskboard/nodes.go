package taskboard

import (
	"github.com/threadflow/threadflow/pkg/boardcache"
	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow"
)

// analyzeInput classifies the user message. Classification problems
// never fault the run: the classifier degrades to a default, and this
// node degrades again if even that fails.
func (a *Agent) analyzeInput(ctx threadflow.Context, s chat.State) (chat.State, error) {
	input := s.InputText
	if input == "" {
		input = s.LastUserMessage()
	}
	s.InputText = input

	cls, err := a.classifier.Classify(ctx, input, s.Extra)
	if err != nil {
		ctx.Logger().Warn("classification failed, using default", "error", err)
		cls = chat.DefaultClassification()
	}
	cls = cls.Normalize()
	s.Classification = &cls

	ctx.Logger().Info("input analyzed",
		"intent", cls.Intent,
		"confidence", cls.Confidence,
		"response_type", cls.ResponseType,
	)
	return s, nil
}

// fetchBoardData refreshes the snapshot cache and derives the views
// the response needs. A failed refresh faults the run; the cache keeps
// any previous snapshot for later turns.
func (a *Agent) fetchBoardData(ctx threadflow.Context, s chat.State) (chat.State, error) {
	cls := classificationOf(s)

	if _, err := a.cache.Fetch(ctx, false); err != nil {
		return s, threadflow.Faultf(threadflow.FaultFetch, "refreshing board data: %v", err)
	}

	switch cls.Intent {
	case chat.IntentQueryStatus, chat.IntentDeadlineInquiry:
		overdue, err := a.cache.Overdue(boardcache.DefaultOverdueDays)
		if err != nil {
			return s, threadflow.Faultf(threadflow.FaultFetch, "listing overdue tasks: %v", err)
		}
		upcoming, err := a.cache.Upcoming(boardcache.DefaultUpcomingDays)
		if err != nil {
			return s, threadflow.Faultf(threadflow.FaultFetch, "listing upcoming tasks: %v", err)
		}
		summary, err := a.cache.Summary(boardcache.DefaultSummaryOverdueDays, boardcache.DefaultUpcomingDays)
		if err != nil {
			return s, threadflow.Faultf(threadflow.FaultFetch, "summarizing board: %v", err)
		}
		s = s.WithWorkingValue(KeyOverdue, overdue)
		s = s.WithWorkingValue(KeyUpcoming, upcoming)
		s = s.WithWorkingValue(KeySummary, summary)

		if names := cls.Entities.Tasks; len(names) > 0 {
			matching, err := a.cache.MatchTasks(names)
			if err != nil {
				return s, threadflow.Faultf(threadflow.FaultFetch, "matching tasks: %v", err)
			}
			s = s.WithWorkingValue(KeyMatching, matching)
		}

	case chat.IntentUpdateTask:
		s = s.WithWorkingValue(KeyUpdate, true)

	default:
		ctx.Logger().Warn("intent does not use board data", "intent", cls.Intent)
	}

	ctx.Logger().Info("board data gathered", "intent", cls.Intent)
	return s, nil
}

// generateResponse writes the user-facing reply. Generation problems
// degrade to the fallback text; the output slot is written exactly
// once either way.
func (a *Agent) generateResponse(ctx threadflow.Context, s chat.State) (chat.State, error) {
	text, err := a.responder.Respond(ctx, chat.RespondRequest{
		Input:          s.InputText,
		Classification: classificationOf(s),
		Context:        s.WorkingData,
	})
	if err != nil {
		ctx.Logger().Warn("response generation failed, using fallback", "error", err)
		text = EmptyReply
	}
	s.OutputText = text
	s = s.AppendAssistant(text)
	return s, nil
}

// sendNotification delivers the reply outward when notifications are
// enabled. Delivery problems never fail the turn; the outcome is
// recorded in SideEffect.
func (a *Agent) sendNotification(ctx threadflow.Context, s chat.State) (chat.State, error) {
	if a.notifier == nil {
		s.SideEffect = NotificationSkipped
		return s, nil
	}

	channel := a.notifyChannel
	if ch, ok := s.Extra["channel"].(string); ok && ch != "" {
		channel = ch
	}

	if err := a.notifier.Notify(ctx, channel, s.OutputText); err != nil {
		ctx.Logger().Warn("notification delivery failed", "channel", channel, "error", err)
		s.SideEffect = NotificationFailed
		return s, nil
	}

	ctx.Logger().Info("notification sent", "channel", channel)
	s.SideEffect = NotificationSent
	return s, nil
}

// handleError converts whatever fault ended the run into one polite
// reply.
func (a *Agent) handleError(ctx threadflow.Context, s chat.State) (chat.State, error) {
	if f := s.Fault(); f != nil {
		ctx.Logger().Error("run fault handled",
			"kind", string(f.Kind),
			"node", f.Node,
			"message", f.Message,
		)
	}
	s.OutputText = ErrorReply
	s = s.AppendAssistant(ErrorReply)
	return s, nil
}

// routeAfterAnalyze sends intents that need board data through the
// fetch node.
func routeAfterAnalyze(ctx threadflow.Context, s chat.State) string {
	if classificationOf(s).NeedsData() {
		return labelFetch
	}
	return labelRespond
}

// routeAfterRespond sends actionable replies through the notification
// node.
func routeAfterRespond(ctx threadflow.Context, s chat.State) string {
	if classificationOf(s).IsActionable() {
		return labelNotify
	}
	return labelEnd
}

// classificationOf guards against a missing classification so routers
// and nodes never nil-check it themselves.
func classificationOf(s chat.State) chat.Classification {
	if s.Classification != nil {
		return *s.Classification
	}
	return chat.DefaultClassification()
}
