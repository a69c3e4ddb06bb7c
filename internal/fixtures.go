package internal

// CreateTestLog creates a log with a standard two-message conversation
func CreateTestLog(name string) *Log {
	return CreateTestLogWithMessages(name, []Message{
		{
			Role:    RoleUser,
			Content: "Hello, how are you?",
			Meta:    &Meta{Timestamp: "2024-01-01T00:00:00Z"},
		},
		{
			Role:    RoleAssistant,
			Content: "I'm doing well, thanks for asking!",
			Meta:    &Meta{Timestamp: "2024-01-01T00:00:05Z"},
		},
	})
}

// CreateTestLogWithMessages creates a log with the given messages
func CreateTestLogWithMessages(name string, messages []Message) *Log {
	return &Log{Name: name, Messages: messages}
}
