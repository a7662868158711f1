package database

import (
	"fmt"
	"testing"

	"dwitter/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(":memory:")
	require.NoError(t, err)
	// A pooled second connection would see its own empty in-memory DB
	db.DBConn.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}

func createTestUser(t *testing.T, db *Database, username string) *models.User {
	t.Helper()

	user, err := NewUserService(db).CreateUser(
		"Test "+username, username, username+"@example.com", "password")
	require.NoError(t, err)

	return user
}

func createTestDweet(t *testing.T, db *Database, authorID, text string, replyTo *string) *models.Dweet {
	t.Helper()

	dweet, err := NewDweetService(db).CreateDweet(authorID, text, replyTo)
	require.NoError(t, err)

	return dweet
}

// requireEngagementConsistent checks the cross-aggregate invariant: a user
// id is in a dweet's set iff the dweet id is in that user's ledger set.
func requireEngagementConsistent(t *testing.T, db *Database) {
	t.Helper()

	pairs := []struct{ dweetTable, ledgerTable string }{
		{"dweet_likes", "profile_likes"},
		{"dweet_redweets", "profile_redweets"},
	}

	for _, pair := range pairs {
		var diverged int
		query := fmt.Sprintf(`
SELECT (SELECT COUNT(*) FROM %[1]s d
        WHERE NOT EXISTS (SELECT 1 FROM %[2]s l WHERE l.user_id = d.user_id AND l.dweet_id = d.dweet_id))
     + (SELECT COUNT(*) FROM %[2]s l
        WHERE NOT EXISTS (SELECT 1 FROM %[1]s d WHERE d.user_id = l.user_id AND d.dweet_id = l.dweet_id))`,
			pair.dweetTable, pair.ledgerTable)
		require.NoError(t, db.DBConn.QueryRow(query).Scan(&diverged))
		require.Zero(t, diverged, "tables %s and %s diverged", pair.dweetTable, pair.ledgerTable)
	}
}
