package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusUnsubmitted, StatusSubmitted, true},
		{StatusSubmitted, StatusApproved, true},
		{StatusUnsubmitted, StatusApproved, false},
		{StatusApproved, StatusSubmitted, false},
		{StatusApproved, StatusUnsubmitted, false},
		{StatusSubmitted, StatusUnsubmitted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSubmission_Normalize(t *testing.T) {
	grade := 3
	tests := []struct {
		name string
		sub  Submission
		want Status
	}{
		{name: "no file", sub: Submission{Status: StatusApproved, Grade: &grade}, want: StatusUnsubmitted},
		{name: "file without status", sub: Submission{File: "a.pdf"}, want: StatusSubmitted},
		{name: "file marked unsubmitted", sub: Submission{File: "a.pdf", Status: StatusUnsubmitted}, want: StatusSubmitted},
		{name: "approved", sub: Submission{File: "a.pdf", Status: StatusApproved}, want: StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sub.Normalize()
			assert.Equal(t, tt.want, tt.sub.Status)
		})
	}
}

func TestSubmission_permissions(t *testing.T) {
	approved := Submission{File: "a.pdf", Status: StatusApproved}
	assert.False(t, approved.AllowsUpload())
	assert.False(t, approved.CanApprove())
	assert.True(t, approved.CanGrade())

	submitted := Submission{File: "a.pdf", Status: StatusSubmitted}
	assert.True(t, submitted.AllowsUpload())
	assert.True(t, submitted.CanApprove())
	assert.False(t, submitted.GradeVisible())
}
