package internal

import "fmt"

// Log is an ordered sequence of messages identified by a name. One log maps
// to exactly one on-disk file and exactly one workspace directory.
type Log struct {
	Name     string    `json:"name" yaml:"name"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// NewLog creates an empty log with the given name.
func NewLog(name string) *Log {
	return &Log{Name: name}
}

// Clone returns a deep copy so handlers can mutate freely without the
// caller observing partial results.
func (l *Log) Clone() *Log {
	out := &Log{Name: l.Name}
	if l.Messages != nil {
		out.Messages = make([]Message, len(l.Messages))
		for i, m := range l.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}

// Append adds a message to the end of the log.
func (l *Log) Append(m Message) {
	l.Messages = append(l.Messages, m)
}

// Detach removes and returns the last message.
func (l *Log) Detach() (Message, error) {
	if len(l.Messages) == 0 {
		return Message{}, &EmptyLogError{Name: l.Name}
	}
	m := l.Messages[len(l.Messages)-1]
	l.Messages = l.Messages[:len(l.Messages)-1]
	return m, nil
}

// EditContent replaces the content of the message at index, keeping its
// role, attachments and position.
func (l *Log) EditContent(index int, content string) error {
	i, err := l.ResolveIndex(index)
	if err != nil {
		return err
	}
	l.Messages[i].Content = content
	return nil
}

// ResolveIndex maps a target index to a concrete position. Negative values
// count from the end (-1 is the last message).
func (l *Log) ResolveIndex(index int) (int, error) {
	if len(l.Messages) == 0 {
		return 0, &EmptyLogError{Name: l.Name}
	}
	if index < 0 {
		index += len(l.Messages)
	}
	if index < 0 || index >= len(l.Messages) {
		return 0, fmt.Errorf("index %d out of range (log has %d messages)", index, len(l.Messages))
	}
	return index, nil
}

// Last returns the last message, or false on an empty log.
func (l *Log) Last() (Message, bool) {
	if len(l.Messages) == 0 {
		return Message{}, false
	}
	return l.Messages[len(l.Messages)-1], true
}
