package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-config-service/internal/model"
	"agent-config-service/internal/store"
)

func TestCreateAgentWithFirstConfiguration(t *testing.T) {
	st := openTestStore(t)
	tenant, user := signupTenant(t, st, "Acme", "a@acme.com")

	agent, err := st.CreateAgent(tenant.ID, user.ID, "Support Bot", "support", "Hello!", `{"greeting":"hi"}`, `{"task_1":{"system_prompt":"be nice"}}`)
	require.NoError(t, err)
	assert.NotEmpty(t, agent.UUID)
	assert.Equal(t, model.AgentStatusActive, agent.Status)

	config, err := st.GetActiveDocument(agent.ID, model.KindConfiguration)
	require.NoError(t, err)
	assert.Equal(t, 1, config.Version)
	assert.True(t, config.Active)

	prompt, err := st.GetActiveDocument(agent.ID, model.KindPrompt)
	require.NoError(t, err)
	assert.Equal(t, 1, prompt.Version)
}

func TestCreateAgentRequiresNameAndConfig(t *testing.T) {
	st := openTestStore(t)
	tenant, user := signupTenant(t, st, "Acme", "a@acme.com")

	_, err := st.CreateAgent(tenant.ID, user.ID, "", "other", "", `{"greeting":"hi"}`, "")
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = st.CreateAgent(tenant.ID, user.ID, "Bot", "other", "", "", "")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestGetAgentScopedToTenant(t *testing.T) {
	st := openTestStore(t)
	tenantA, userA := signupTenant(t, st, "Acme", "a@acme.com")
	tenantB, _ := signupTenant(t, st, "Globex", "b@globex.com")

	agent := createAgent(t, st, tenantA.ID, userA.ID, "Support Bot")

	found, err := st.GetAgent(tenantA.ID, agent.UUID)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, found.ID)

	// Tenant B holds the exact external id and still sees nothing.
	_, err = st.GetAgent(tenantB.ID, agent.UUID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCrossTenantIsolationOnEveryPath(t *testing.T) {
	st := openTestStore(t)
	tenantA, userA := signupTenant(t, st, "Acme", "a@acme.com")
	tenantB, _ := signupTenant(t, st, "Globex", "b@globex.com")

	agent := createAgent(t, st, tenantA.ID, userA.ID, "Support Bot")
	name := "Hijacked"

	_, err := st.UpdateAgentMetadata(tenantB.ID, agent.UUID, store.AgentMetadataUpdate{Name: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, st.SoftDeleteAgent(tenantB.ID, agent.UUID), store.ErrNotFound)

	_, err = st.SetAgentStatus(tenantB.ID, agent.UUID, model.AgentStatusDisabled)
	assert.ErrorIs(t, err, store.ErrNotFound)

	agents, err := st.ListAgents(tenantB.ID)
	require.NoError(t, err)
	assert.Empty(t, agents)

	// Nothing leaked changes into tenant A's agent.
	unchanged, err := st.GetAgent(tenantA.ID, agent.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Support Bot", unchanged.Name)
	assert.Equal(t, model.AgentStatusActive, unchanged.Status)
}

func TestListAgentsNewestFirstExcludesDeleted(t *testing.T) {
	st := openTestStore(t)
	tenant, user := signupTenant(t, st, "Acme", "a@acme.com")

	first := createAgent(t, st, tenant.ID, user.ID, "First")
	time.Sleep(10 * time.Millisecond) // distinct created_at timestamps
	second := createAgent(t, st, tenant.ID, user.ID, "Second")
	time.Sleep(10 * time.Millisecond)
	third := createAgent(t, st, tenant.ID, user.ID, "Third")

	require.NoError(t, st.SoftDeleteAgent(tenant.ID, second.UUID))

	agents, err := st.ListAgents(tenant.ID)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, third.UUID, agents[0].UUID)
	assert.Equal(t, first.UUID, agents[1].UUID)
}

func TestSoftDeleteIsNotIdempotent(t *testing.T) {
	st := openTestStore(t)
	tenant, user := signupTenant(t, st, "Acme", "a@acme.com")
	agent := createAgent(t, st, tenant.ID, user.ID, "Support Bot")

	require.NoError(t, st.SoftDeleteAgent(tenant.ID, agent.UUID))

	// The second delete sees no live row.
	assert.ErrorIs(t, st.SoftDeleteAgent(tenant.ID, agent.UUID), store.ErrNotFound)

	// Normal reads no longer find the agent...
	_, err := st.GetAgent(tenant.ID, agent.UUID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// ...but the direct-by-id audit lookup still does, with the stamp.
	audited, err := st.GetAgentByID(agent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AgentStatusDeleted, audited.Status)
	require.NotNil(t, audited.DeletedAt)
}

func TestUpdateAgentMetadataPartial(t *testing.T) {
	st := openTestStore(t)
	tenant, user := signupTenant(t, st, "Acme", "a@acme.com")
	agent, err := st.CreateAgent(tenant.ID, user.ID, "Support Bot", "support", "Hello!", `{"greeting":"hi"}`, "")
	require.NoError(t, err)

	name := "Sales Bot"
	updated, err := st.UpdateAgentMetadata(tenant.ID, agent.UUID, store.AgentMetadataUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sales Bot", updated.Name)
	assert.Equal(t, "support", updated.AgentType)
	assert.Equal(t, "Hello!", updated.WelcomeMessage)

	empty := ""
	_, err = st.UpdateAgentMetadata(tenant.ID, agent.UUID, store.AgentMetadataUpdate{Name: &empty})
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestAgentStatusStateMachine(t *testing.T) {
	st := openTestStore(t)
	tenant, user := signupTenant(t, st, "Acme", "a@acme.com")
	agent := createAgent(t, st, tenant.ID, user.ID, "Support Bot")

	// active -> disabled
	disabled, err := st.SetAgentStatus(tenant.ID, agent.UUID, model.AgentStatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, model.AgentStatusDisabled, disabled.Status)

	// disabled -> active is not a legal transition
	_, err = st.SetAgentStatus(tenant.ID, agent.UUID, model.AgentStatusActive)
	assert.ErrorIs(t, err, store.ErrValidation)

	// disabled -> deleted
	deleted, err := st.SetAgentStatus(tenant.ID, agent.UUID, model.AgentStatusDeleted)
	require.NoError(t, err)
	assert.Equal(t, model.AgentStatusDeleted, deleted.Status)

	// deleted is terminal: the agent is gone from normal reads
	_, err = st.SetAgentStatus(tenant.ID, agent.UUID, model.AgentStatusDisabled)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
