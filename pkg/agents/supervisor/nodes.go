package supervisor

import (
	"strings"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow"
)

// analyzeRequest asks the decider which specialist should take the
// question. Decider failures and labels outside the closed set both
// fall back to the general route; routing never fails a run.
func (sup *Supervisor) analyzeRequest(ctx threadflow.Context, s chat.State) (chat.State, error) {
	input := s.InputText
	if input == "" {
		input = s.LastUserMessage()
	}
	s.InputText = input

	route := RouteGeneral
	raw, err := sup.decider.DecideRoute(ctx, input)
	if err != nil {
		ctx.Logger().Warn("route decision failed, using general", "error", err)
	} else if label, ok := normalizeRoute(raw); ok {
		route = label
	} else {
		ctx.Logger().Warn("route outside the closed set, using general", "raw", raw)
	}

	s = s.WithWorkingValue(KeyRoute, route)
	ctx.Logger().Info("request routed", "route", route)
	return s, nil
}

// normalizeRoute coerces whatever the decider returned into a label
// from the closed set. Deciders backed by language models sometimes
// answer with a wrapper object instead of the bare label.
func normalizeRoute(raw any) (string, bool) {
	var candidate string
	switch v := raw.(type) {
	case string:
		candidate = v
	case map[string]any:
		if s, ok := v["type"].(string); ok {
			candidate = s
		} else if s, ok := v["next_agent"].(string); ok {
			candidate = s
		}
	}

	candidate = strings.ToLower(strings.TrimSpace(candidate))
	switch candidate {
	case RouteTasks, RouteSheets, RouteGeneral:
		return candidate, true
	}
	return "", false
}

func (sup *Supervisor) routeAfterAnalysis(_ threadflow.Context, s chat.State) string {
	if route, ok := s.WorkingData[KeyRoute].(string); ok && route != "" {
		return route
	}
	return RouteGeneral
}

func (sup *Supervisor) delegateTaskboard(ctx threadflow.Context, s chat.State) (chat.State, error) {
	return sup.delegate(ctx, s, "taskboard", sup.taskboard)
}

func (sup *Supervisor) delegateSheets(ctx threadflow.Context, s chat.State) (chat.State, error) {
	return sup.delegate(ctx, s, "sheets", sup.sheets)
}

// delegate runs the chosen specialist synchronously on the same
// thread. The child handles its own faults and replies politely; an
// error here means the child run could not complete at all, which
// becomes a delegation fault.
func (sup *Supervisor) delegate(ctx threadflow.Context, s chat.State, name string, child Delegate) (chat.State, error) {
	reply, err := child.Handle(ctx, ctx.ThreadID(), s.InputText, s.Extra)
	if err != nil {
		return s, threadflow.Faultf(threadflow.FaultDelegation, "%s agent: %v", name, err)
	}

	ctx.Logger().Info("delegate answered", "agent", name)
	s.OutputText = reply
	s = s.AppendAssistant(reply)
	return s, nil
}

// respondGeneral answers directly for questions outside every
// specialist's remit. Generation problems degrade to the fallback
// text.
func (sup *Supervisor) respondGeneral(ctx threadflow.Context, s chat.State) (chat.State, error) {
	text, err := sup.responder.Respond(ctx, chat.RespondRequest{Input: s.InputText})
	if err != nil {
		ctx.Logger().Warn("general response failed, using fallback", "error", err)
		text = EmptyReply
	}
	s.OutputText = text
	s = s.AppendAssistant(text)
	return s, nil
}

// handleError converts whatever fault ended the run into one polite
// reply.
func (sup *Supervisor) handleError(ctx threadflow.Context, s chat.State) (chat.State, error) {
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
