package sheets

import (
	"regexp"
	"strings"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow"
)

var fileNamePattern = regexp.MustCompile(`[\w\-.]+\.csv\b`)

// analyzeQuery validates the question and resolves which file to
// analyze: the caller's extra data first, then a file named in the
// query, then the agent default.
func (a *Agent) analyzeQuery(ctx threadflow.Context, s chat.State) (chat.State, error) {
	input := s.InputText
	if input == "" {
		input = s.LastUserMessage()
	}
	if strings.TrimSpace(input) == "" {
		return s, threadflow.Faultf(threadflow.FaultClassification, "empty query")
	}
	s.InputText = input

	file := a.defaultFile
	if named := fileNamePattern.FindString(input); named != "" {
		file = named
	}
	if f, ok := s.Extra["file"].(string); ok && f != "" {
		file = f
	}
	s = s.WithWorkingValue(KeyFileName, file)

	ctx.Logger().Info("query analyzed", "file", file)
	return s, nil
}

// fetchFile locates, downloads, and parses the data file. Any problem
// here is a fetch fault: without the table the pipeline has nothing to
// analyze.
func (a *Agent) fetchFile(ctx threadflow.Context, s chat.State) (chat.State, error) {
	name, _ := s.WorkingData[KeyFileName].(string)

	info, err := FindByName(ctx, a.source, name)
	if err != nil {
		return s, threadflow.Faultf(threadflow.FaultFetch, "locating file %q: %v", name, err)
	}
	data, err := a.source.Download(ctx, info.ID)
	if err != nil {
		return s, threadflow.Faultf(threadflow.FaultFetch, "downloading file %q: %v", name, err)
	}
	table, err := ParseCSV(data)
	if err != nil {
		return s, threadflow.Faultf(threadflow.FaultFetch, "parsing file %q: %v", name, err)
	}

	rows, cols := table.Shape()
	ctx.Logger().Info("file fetched", "file", name, "rows", rows, "columns", cols)
	return s.WithWorkingValue(KeyTable, table), nil
}

// preprocessData drops empty rows and columns before analysis.
func (a *Agent) preprocessData(ctx threadflow.Context, s chat.State) (chat.State, error) {
	table, ok := s.WorkingData[KeyTable].(*Table)
	if !ok {
		return s, threadflow.Faultf(threadflow.FaultInternal, "no table in working data")
	}

	cleaned := table.DropEmpty()
	rows, cols := cleaned.Shape()
	s = s.WithWorkingValue(KeyTable, cleaned)
	s = s.WithWorkingValue(KeyTableShape, map[string]int{"rows": rows, "columns": cols})

	ctx.Logger().Info("data preprocessed", "rows", rows, "columns", cols)
	return s, nil
}

// analyzeData computes per-column statistics. A table with no numeric
// columns is not a fault; the responder says so instead.
func (a *Agent) analyzeData(ctx threadflow.Context, s chat.State) (chat.State, error) {
	table, ok := s.WorkingData[KeyTable].(*Table)
	if !ok {
		return s, threadflow.Faultf(threadflow.FaultInternal, "no table in working data")
	}

	stats := table.Analyze()
	ctx.Logger().Info("data analyzed", "numeric_columns", len(stats))
	return s.WithWorkingValue(KeyAnalysis, stats), nil
}

// buildInsights turns the raw statistics into prose findings. A
// generation problem here is a fault: the final response depends on
// the findings.
func (a *Agent) buildInsights(ctx threadflow.Context, s chat.State) (chat.State, error) {
	insights, err := a.responder.Respond(ctx, chat.RespondRequest{
		Input: s.InputText,
		Context: map[string]any{
			KeyFileName:   s.WorkingData[KeyFileName],
			KeyTableShape: s.WorkingData[KeyTableShape],
			KeyAnalysis:   s.WorkingData[KeyAnalysis],
		},
	})
	if err != nil {
		return s, threadflow.Faultf(threadflow.FaultGeneration, "building insights: %v", err)
	}
	return s.WithWorkingValue(KeyInsights, strings.TrimSpace(insights)), nil
}

// generateResponse phrases the findings as the user-facing reply.
// Generation problems degrade to the fallback text; the output slot is
// written exactly once either way.
func (a *Agent) generateResponse(ctx threadflow.Context, s chat.State) (chat.State, error) {
	text, err := a.responder.Respond(ctx, chat.RespondRequest{
		Input: s.InputText,
		Context: map[string]any{
			KeyFileName: s.WorkingData[KeyFileName],
			KeyAnalysis: s.WorkingData[KeyAnalysis],
			KeyInsights: s.WorkingData[KeyInsights],
		},
	})
	if err != nil {
		ctx.Logger().Warn("response generation failed, using fallback", "error", err)
		text = EmptyReply
	}
	s.OutputText = text
	s = s.AppendAssistant(text)
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
