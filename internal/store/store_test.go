package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agent-config-service/internal/model"
	"agent-config-service/internal/store"
)

// openTestStore runs the store against a throwaway SQLite database.
// The busy timeout matters for the concurrent-writer tests, where
// several goroutines contend for the write lock.
func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "agents.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	st, err := store.New(db)
	require.NoError(t, err)
	st.SetBcryptCost(bcrypt.MinCost)

	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// signupTenant creates a tenant with an owner and returns both.
func signupTenant(t *testing.T, st *store.Store, tenantName, email string) (*model.Tenant, *model.User) {
	t.Helper()
	tenant, user, err := st.Signup(tenantName, email, "secret-password")
	require.NoError(t, err)
	return tenant, user
}

// createAgent creates an agent with a minimal first configuration.
func createAgent(t *testing.T, st *store.Store, tenantID, userID uint, name string) *model.Agent {
	t.Helper()
	agent, err := st.CreateAgent(tenantID, userID, name, "other", "", `{"greeting":"hi"}`, "")
	require.NoError(t, err)
	return agent
}
