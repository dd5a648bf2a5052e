package model

import (
	"fmt"
	"time"
)

// Comment is a free-text note attached to a task. Only Text is editable once
// written.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Comment) Check() error {
	if c.ID == "" {
		return fmt.Errorf("comment: empty id")
	}
	if c.TaskID == "" {
		return fmt.Errorf("comment %s: empty task id", c.ID)
	}
	return nil
}

func (c Comment) Key() string { return c.ID }
