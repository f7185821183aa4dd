package health

// Service encapsulates health-related checks.
type Service struct {
	name string
}

// NewService constructs a new health service reporting for the named service.
func NewService(name string) *Service {
	return &Service{name: name}
}

// Status returns a simple health payload. The process only serves requests
// after the agent has been built, so reaching this handler means it is ready.
func (s *Service) Status() map[string]any {
	payload := map[string]any{"ok": true}
	if s.name != "" {
		payload["service"] = s.name
	}
	return payload
}
