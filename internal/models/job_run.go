package models

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// JobRun records one execution of a worker task
type JobRun struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TaskName string                 `gorm:"type:varchar(255);index" json:"task_name"`
	RunAt    time.Time              `json:"run_at"`
	Runtime  int                    `json:"runtime"` // milliseconds
	Status   string                 `gorm:"type:varchar(50)" json:"status"`
	Result   map[string]interface{} `gorm:"serializer:json" json:"result"`
}

// JobSchedule is a recurring schedule described by an RFC 5545 RRULE
type JobSchedule struct {
	rule *rrule.RRule
}

// ParseJobSchedule parses an RRULE string anchored at start
func ParseJobSchedule(rule string, start time.Time) (*JobSchedule, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", rule, err)
	}
	r.DTStart(start)
	return &JobSchedule{rule: r}, nil
}

// Next returns the first occurrence strictly after t, or the zero time when the rule is exhausted
func (s *JobSchedule) Next(t time.Time) time.Time {
	return s.rule.After(t, false)
}
