package research

import "research-agent/internal/llm"

// InputState is the public input of the research graph.
type InputState struct {
	UserInput string `json:"user_input"`
}

// OutputState is the public output of the research graph. Both fields are
// always set, possibly to "".
type OutputState struct {
	ResearchSummary   string `json:"research_summary"`
	ResearchDocuments string `json:"research_documents"`
}

// State flows through the graph for a single invocation and is discarded
// afterwards. Messages records what was sent to the model.
type State struct {
	UserInput         string
	ResearchSummary   string
	ResearchDocuments string
	Messages          []llm.Message
}

// Output projects the state onto OutputState.
func (s State) Output() OutputState {
	return OutputState{
		ResearchSummary:   s.ResearchSummary,
		ResearchDocuments: s.ResearchDocuments,
	}
}

// Input is accepted by Agent.Invoke: either a Query or an InputState.
type Input interface {
	initialState() State
}

// Query is a raw user query; it becomes InputState{UserInput: q}.
type Query string

func (q Query) initialState() State {
	return State{UserInput: string(q)}
}

func (in InputState) initialState() State {
	return State{UserInput: in.UserInput}
}
