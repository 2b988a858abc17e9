// Package event decodes EC2 Auto Scaling lifecycle actions delivered through
// EventBridge.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyDetail is returned when the envelope carries no detail object.
var ErrEmptyDetail = errors.New("event has no detail")

// MissingFieldError names a required detail key that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("event detail missing %s", e.Field)
}

// LifecycleDetail is the detail of an "EC2 Instance-launch Lifecycle Action"
// or "EC2 Instance-terminate Lifecycle Action" event.
//
// Example:
//
//	{
//	    "LifecycleActionToken": "87654321-4321-4321-4321-210987654321",
//	    "AutoScalingGroupName": "my-asg",
//	    "LifecycleHookName": "my-lifecycle-hook",
//	    "EC2InstanceId": "i-1234567890abcdef0",
//	    "LifecycleTransition": "autoscaling:EC2_INSTANCE_TERMINATING",
//	    "NotificationMetadata": "additional-info"
//	}
type LifecycleDetail struct {
	AutoScalingGroupName string
	LifecycleHookName    string
	LifecycleActionToken string

	// Optional, logged only
	EC2InstanceID        string
	LifecycleTransition  string
	NotificationMetadata string
}

// wireDetail keeps required keys as pointers so absence can be told apart
// from an empty value.
type wireDetail struct {
	AutoScalingGroupName *string `json:"AutoScalingGroupName"`
	LifecycleHookName    *string `json:"LifecycleHookName"`
	LifecycleActionToken *string `json:"LifecycleActionToken"`
	EC2InstanceID        string  `json:"EC2InstanceId"`
	LifecycleTransition  string  `json:"LifecycleTransition"`
	NotificationMetadata string  `json:"NotificationMetadata"`
}

// ParseDetail decodes raw and checks that the three lifecycle fields are
// present. Values are returned verbatim.
func ParseDetail(raw json.RawMessage) (*LifecycleDetail, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyDetail
	}

	var w wireDetail
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("failed to decode event detail: %w", err)
	}

	switch {
	case w.AutoScalingGroupName == nil:
		return nil, &MissingFieldError{Field: "AutoScalingGroupName"}
	case w.LifecycleHookName == nil:
		return nil, &MissingFieldError{Field: "LifecycleHookName"}
	case w.LifecycleActionToken == nil:
		return nil, &MissingFieldError{Field: "LifecycleActionToken"}
	}

	return &LifecycleDetail{
		AutoScalingGroupName: *w.AutoScalingGroupName,
		LifecycleHookName:    *w.LifecycleHookName,
		LifecycleActionToken: *w.LifecycleActionToken,
		EC2InstanceID:        w.EC2InstanceID,
		LifecycleTransition:  w.LifecycleTransition,
		NotificationMetadata: w.NotificationMetadata,
	}, nil
}

// Redacted returns the fields that are safe to log. The action token is
// left out.
func (d *LifecycleDetail) Redacted() map[string]any {
	out := map[string]any{
		"asg_name":  d.AutoScalingGroupName,
		"hook_name": d.LifecycleHookName,
	}
	if d.EC2InstanceID != "" {
		out["instance_id"] = d.EC2InstanceID
	}
	if d.LifecycleTransition != "" {
		out["transition"] = d.LifecycleTransition
	}
	return out
}
