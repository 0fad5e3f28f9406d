package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetsAreDeterministic(t *testing.T) {
	p := NewProvider()

	assert.Equal(t, p.DashboardStats(), p.DashboardStats())
	assert.Equal(t, p.Requests("u1"), p.Requests("u1"))
	assert.Equal(t, p.PendingReviews("m1"), p.PendingReviews("m1"))
	assert.Equal(t, p.Certificates("u1"), p.Certificates("u1"))
	assert.Equal(t, p.Opportunities(), p.Opportunities())
}

func TestDatasetsReturnCopies(t *testing.T) {
	p := NewProvider()

	stats := p.DashboardStats()
	stats.TotalStudents = -1
	assert.NotEqual(t, -1, p.DashboardStats().TotalStudents)

	reqs := p.Requests("u1")
	require.NotEmpty(t, reqs)
	reqs[0].CompanyName = "mutated"
	assert.NotEqual(t, "mutated", p.Requests("u1")[0].CompanyName)

	opps := p.Opportunities()
	require.NotEmpty(t, opps)
	require.NotEmpty(t, opps[0].EligibleDepts)
	opps[0].EligibleDepts[0] = "mutated"
	assert.NotEqual(t, "mutated", p.Opportunities()[0].EligibleDepts[0])
}

func TestRequestsAreStampedWithActor(t *testing.T) {
	p := NewProvider()
	for _, req := range p.Requests("student-42") {
		assert.Equal(t, "student-42", req.StudentID)
	}
	for _, cert := range p.Certificates("student-42") {
		assert.Equal(t, "student-42", cert.StudentID)
	}
	for _, req := range p.PendingReviews("mentor-7") {
		assert.Equal(t, "mentor-7", req.MentorID)
	}
}
