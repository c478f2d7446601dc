package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	assert := require.New(t)

	optionalInt := NewOptional(42, true)
	assert.Equal(42, optionalInt.Value)
	assert.True(optionalInt.IsPresent)

	optionalString := NewOptional("foo", false)
	assert.Equal("foo", optionalString.Value)
	assert.False(optionalString.IsPresent)
}

func TestEmail(t *testing.T) {
	cases := []struct {
		raw       string
		email     Email
		localPart string
		domain    string
		isValid   bool
	}{
		{raw: "Tomorrow@Snoozer.io", email: "tomorrow@snoozer.io", localPart: "tomorrow", domain: "snoozer.io", isValid: true},
		{raw: " 2hours@snoozer.io ", email: "2hours@snoozer.io", localPart: "2hours", domain: "snoozer.io", isValid: true},
		{raw: "\"a@b\"@snoozer.io", email: "\"a@b\"@snoozer.io", localPart: "\"a@b\"", domain: "snoozer.io", isValid: true},
		{raw: "nodomain", email: "nodomain", localPart: "nodomain", domain: "", isValid: false},
		{raw: "@snoozer.io", email: "@snoozer.io", localPart: "", domain: "snoozer.io", isValid: false},
	}
	for _, testcase := range cases {
		t.Run(testcase.raw, func(t *testing.T) {
			assert := require.New(t)
			email := NewEmail(testcase.raw)
			assert.Equal(testcase.email, email)
			assert.Equal(testcase.localPart, email.LocalPart())
			assert.Equal(testcase.domain, email.Domain())
			assert.Equal(testcase.isValid, email.IsValid())
		})
	}
}
