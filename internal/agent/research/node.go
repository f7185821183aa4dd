package research

import (
	"context"
	"strings"

	"research-agent/internal/llm"
	"research-agent/internal/shared/telemetry"
	"research-agent/internal/shared/util"
)

// NodeName is the id of the single processing node.
const NodeName = "research"

// buildMessages returns the optional system message followed by the human
// message built from the template, or the raw input when no template is set.
func buildMessages(prompts PromptConfig, userInput string) ([]llm.Message, error) {
	messages := make([]llm.Message, 0, 2)
	if prompts.SystemPrompt != nil && *prompts.SystemPrompt != "" {
		messages = append(messages, llm.SystemMessage(*prompts.SystemPrompt))
	}

	content := userInput
	if prompts.UserPromptTemplate != nil && *prompts.UserPromptTemplate != "" {
		formatted, err := formatTemplate(*prompts.UserPromptTemplate, userInput)
		if err != nil {
			return nil, err
		}
		content = formatted
	}
	return append(messages, llm.HumanMessage(content)), nil
}

func researchNode(prompts PromptConfig, client llm.StructuredClient) func(context.Context, State) (State, error) {
	return func(ctx context.Context, state State) (State, error) {
		messages, err := buildMessages(prompts, state.UserInput)
		if err != nil {
			return state, err
		}

		resp, err := client.Invoke(ctx, messages)
		if err != nil {
			return state, err
		}

		// Absent fields degrade to "" rather than failing the request.
		if resp.ProcessingSummary == nil && resp.ResearchDocument == nil {
			telemetry.Warn("research.empty_response", map[string]any{
				"model":       prompts.Model,
				"input_chars": len(strings.TrimSpace(state.UserInput)),
				"input_hash":  util.Fingerprint(state.UserInput),
			})
		}

		state.ResearchSummary = resp.Summary()
		state.ResearchDocuments = resp.Document()
		state.Messages = messages
		return state, nil
	}
}
