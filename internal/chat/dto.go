package chat

// ResearchRequest is the body of POST /chat/research. Query is a pointer so
// a missing or null value can be told apart from "".
type ResearchRequest struct {
	Query *string `json:"query"`
}

// ResearchResponse is the body returned for a successful research call.
type ResearchResponse struct {
	ResearchSummary   string `json:"research_summary"`
	ResearchDocuments string `json:"research_documents"`
}

// EndpointMessage is returned by GET /chat.
const EndpointMessage = "This is the chat endpoint"
