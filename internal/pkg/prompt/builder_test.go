package prompt

import (
	"strings"
	"testing"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func testContext() *persistence.CallContext {
	return &persistence.CallContext{
		Call:      &persistence.Call{ID: "c1"},
		Candidate: &persistence.Candidate{FullName: "Jane Doe"},
		Campaign: &persistence.Campaign{Name: "Backend Hiring", CompanyName: "Acme",
			AgentName: "Ava", Position: "Go Developer"},
		Questions: []persistence.Question{{Text: "Why Go?", OrderIndex: 1},
			{Text: "Tell me about a hard bug", OrderIndex: 2}},
	}
}

func TestBuild(t *testing.T) {
	res := Build(testContext())
	assert.Contains(t, res, "You are Ava from Acme.")
	assert.Contains(t, res, "Jane Doe")
	assert.Contains(t, res, "Go Developer position")
	assert.Contains(t, res, "CAMPAIGN: Backend Hiring")
	assert.Contains(t, res, "1. Why Go?\n2. Tell me about a hard bug\n")
}

func TestBuild_Defaults(t *testing.T) {
	data := testContext()
	data.Campaign.AgentName = ""
	data.Campaign.CompanyName = ""
	res := Build(data)
	assert.Contains(t, res, "You are an AI Recruiter from the company.")
}

func TestBuild_QuestionsInOrder(t *testing.T) {
	res := Build(testContext())
	assert.Less(t, strings.Index(res, "Why Go?"), strings.Index(res, "hard bug"))
}

func TestBuild_Profile(t *testing.T) {
	data := testContext()
	res := Build(data)
	assert.NotContains(t, res, "CANDIDATE PROFILE")

	data.Candidate.CurrentCompany = utils.ToSQLStr("Globex")
	data.Candidate.YearsOfExp = utils.ToSQLInt32(7)
	res = Build(data)
	assert.Contains(t, res, "CANDIDATE PROFILE")
	assert.Contains(t, res, "Currently at Globex")
	assert.Contains(t, res, "7 years of experience")
}

func TestBuild_Description(t *testing.T) {
	data := testContext()
	data.Campaign.Description = utils.ToSQLStr("We build rockets")
	res := Build(data)
	assert.Contains(t, res, "ABOUT: We build rockets")
}
