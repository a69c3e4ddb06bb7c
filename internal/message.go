package internal

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// AttachmentKind identifies the type of an attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment references external content carried by a message.
type Attachment struct {
	Kind AttachmentKind `json:"kind" yaml:"kind"`
	Ref  string         `json:"ref" yaml:"ref"`
}

// Usage records token accounting reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty" yaml:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty" yaml:"output_tokens,omitempty"`
}

// Meta contains additional message information
type Meta struct {
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Usage     *Usage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Message represents one entry of a language log. Messages are immutable
// once appended except through the log's explicit detach and edit
// operations.
type Message struct {
	Role        Role         `json:"role" yaml:"role"`
	Content     string       `json:"content" yaml:"content"`
	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Meta        *Meta        `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:    role,
		Content: content,
		Meta:    &Meta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	}
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Attachments != nil {
		out.Attachments = make([]Attachment, len(m.Attachments))
		copy(out.Attachments, m.Attachments)
	}
	if m.Meta != nil {
		meta := *m.Meta
		if m.Meta.Usage != nil {
			usage := *m.Meta.Usage
			meta.Usage = &usage
		}
		out.Meta = &meta
	}
	return out
}
