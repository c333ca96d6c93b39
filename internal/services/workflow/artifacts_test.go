package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/services/workflow"
)

const draftReply = `## Draft Email

### Subject:
Scheduled Plumbing Repair - Unit 4B

### To:
Jordan Lee, Tenant of Unit 4B

### Email Body:

Dear Jordan,

A licensed plumber will repair the kitchen sink on Tuesday between 9 and 11 AM.

Best regards,
Property Management

### Key Points Included:
- Repair date and window
- Access requirements

---

> **Note:** Please review and customize this draft before sending.`

const planReply = `## Action Plan: Kitchen Sink Leak in Unit 4B

### Checklist:
- [ ] **Step 1:** Shut off the water supply under the sink
- [ ] **Step 2:** Schedule a licensed plumber
- [x] **Step 3:** Notify the tenant of the visit

### Key Considerations:
- Habitability obligations require prompt repair
- Document the damage with photos

### Next Steps:
Would you like me to:
- Add more details to any step?`

func TestParseEmailDraft(t *testing.T) {
	fields, ok := workflow.ParseEmailDraft(draftReply)

	require.True(t, ok)
	assert.Equal(t, "Scheduled Plumbing Repair - Unit 4B", fields.Subject)
	assert.Equal(t, "Jordan Lee, Tenant of Unit 4B", fields.Recipient)
	assert.True(t, len(fields.Body) > 0)
	assert.Contains(t, fields.Body, "Dear Jordan,")
	assert.Contains(t, fields.Body, "Property Management")
	assert.NotContains(t, fields.Body, "Key Points")
	assert.Equal(t, []string{"Repair date and window", "Access requirements"}, fields.KeyPoints)
}

func TestParseEmailDraft_InlineSubject(t *testing.T) {
	fields, ok := workflow.ParseEmailDraft("### Subject: Rent reminder\n### Email Body:\nRent is due.")

	require.True(t, ok)
	assert.Equal(t, "Rent reminder", fields.Subject)
	assert.Empty(t, fields.Recipient)
	assert.Equal(t, "Rent is due.", fields.Body)
}

func TestParseEmailDraft_NotADraft(t *testing.T) {
	_, ok := workflow.ParseEmailDraft("I need a bit more information first.")
	assert.False(t, ok)

	_, ok = workflow.ParseEmailDraft("### Subject:\nHello\n")
	assert.False(t, ok, "a draft needs a body")
}

func TestParseActionPlan(t *testing.T) {
	fields, ok := workflow.ParseActionPlan(planReply)

	require.True(t, ok)
	assert.Equal(t, "Kitchen Sink Leak in Unit 4B", fields.Title)
	assert.Equal(t, []string{
		"**Step 1:** Shut off the water supply under the sink",
		"**Step 2:** Schedule a licensed plumber",
		"**Step 3:** Notify the tenant of the visit",
	}, fields.Checklist)
	assert.Equal(t, []string{
		"Habitability obligations require prompt repair",
		"Document the damage with photos",
	}, fields.KeyConsiderations)
}

func TestParseActionPlan_BoldChecklistHeading(t *testing.T) {
	fields, ok := workflow.ParseActionPlan("**Checklist:**\n- [ ] Inspect the roof\n")

	require.True(t, ok)
	assert.Equal(t, "Action Plan", fields.Title)
	assert.Equal(t, []string{"Inspect the roof"}, fields.Checklist)
	assert.Empty(t, fields.KeyConsiderations)
}

func TestParseActionPlan_QuestionsAreNotAPlan(t *testing.T) {
	_, ok := workflow.ParseActionPlan(questionsReply)
	assert.False(t, ok)
}
