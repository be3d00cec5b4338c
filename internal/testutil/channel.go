package testutil

import (
	"encoding/json"
	"sync"
)

// RecordingChannel captures every message sent to it, for asserting on broadcasts
type RecordingChannel struct {
	mu       sync.Mutex
	messages []any
	err      error
}

// NewRecordingChannel creates an empty RecordingChannel
func NewRecordingChannel() *RecordingChannel {
	return &RecordingChannel{}
}

// Send records msg, or returns the configured failure
func (c *RecordingChannel) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, msg)
	return nil
}

// Fail makes every later Send return err
func (c *RecordingChannel) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Messages returns a copy of everything sent so far
func (c *RecordingChannel) Messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.messages))
	copy(out, c.messages)
	return out
}

// Types returns the "type" field of each recorded message in order
func (c *RecordingChannel) Types() []string {
	var types []string
	for _, msg := range c.Messages() {
		types = append(types, MessageType(msg))
	}
	return types
}

// Last returns the most recent message, or nil
func (c *RecordingChannel) Last() any {
	msgs := c.Messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Reset drops recorded messages
func (c *RecordingChannel) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
}

// MessageType extracts the "type" field by round-tripping through JSON
func MessageType(msg any) string {
	data, err := json.Marshal(msg)
	if err != nil {
		return ""
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.Type
}
