package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const terminateDetail = `{
	"LifecycleActionToken": "87654321-4321-4321-4321-210987654321",
	"AutoScalingGroupName": "my-asg",
	"LifecycleHookName": "my-lifecycle-hook",
	"EC2InstanceId": "i-1234567890abcdef0",
	"LifecycleTransition": "autoscaling:EC2_INSTANCE_TERMINATING",
	"NotificationMetadata": "additional-info"
}`

func TestParseDetail_Full(t *testing.T) {
	d, err := ParseDetail(json.RawMessage(terminateDetail))
	require.NoError(t, err)

	assert.Equal(t, "my-asg", d.AutoScalingGroupName)
	assert.Equal(t, "my-lifecycle-hook", d.LifecycleHookName)
	assert.Equal(t, "87654321-4321-4321-4321-210987654321", d.LifecycleActionToken)
	assert.Equal(t, "i-1234567890abcdef0", d.EC2InstanceID)
	assert.Equal(t, "autoscaling:EC2_INSTANCE_TERMINATING", d.LifecycleTransition)
	assert.Equal(t, "additional-info", d.NotificationMetadata)
}

func TestParseDetail_RequiredOnly(t *testing.T) {
	raw := `{"AutoScalingGroupName":"a","LifecycleHookName":"h","LifecycleActionToken":"t"}`

	d, err := ParseDetail(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, "a", d.AutoScalingGroupName)
	assert.Empty(t, d.EC2InstanceID)
}

func TestParseDetail_EmptyValuesAccepted(t *testing.T) {
	raw := `{"AutoScalingGroupName":"","LifecycleHookName":"","LifecycleActionToken":""}`

	d, err := ParseDetail(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, "", d.LifecycleHookName)
}

func TestParseDetail_MissingField(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"group", `{"LifecycleHookName":"h","LifecycleActionToken":"t"}`, "AutoScalingGroupName"},
		{"hook", `{"AutoScalingGroupName":"a","LifecycleActionToken":"t"}`, "LifecycleHookName"},
		{"token", `{"AutoScalingGroupName":"a","LifecycleHookName":"h"}`, "LifecycleActionToken"},
		{"null hook", `{"AutoScalingGroupName":"a","LifecycleHookName":null,"LifecycleActionToken":"t"}`, "LifecycleHookName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDetail(json.RawMessage(tt.raw))
			var mf *MissingFieldError
			require.True(t, errors.As(err, &mf), "expected MissingFieldError, got %v", err)
			assert.Equal(t, tt.field, mf.Field)
		})
	}
}

func TestParseDetail_Empty(t *testing.T) {
	for _, raw := range []string{"", "  ", "null"} {
		_, err := ParseDetail(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrEmptyDetail, "raw=%q", raw)
	}
}

func TestParseDetail_Malformed(t *testing.T) {
	_, err := ParseDetail(json.RawMessage(`["not","an","object"]`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyDetail)
}

func TestRedacted_OmitsToken(t *testing.T) {
	d, err := ParseDetail(json.RawMessage(terminateDetail))
	require.NoError(t, err)

	fields := d.Redacted()
	assert.Equal(t, "my-asg", fields["asg_name"])
	assert.Equal(t, "i-1234567890abcdef0", fields["instance_id"])
	for _, v := range fields {
		assert.NotEqual(t, d.LifecycleActionToken, v)
	}
}
