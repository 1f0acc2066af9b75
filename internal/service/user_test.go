package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditUser(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		gdb := newTestDB(t)
		svc := NewUser(gdb)
		user := createTestUser(t, gdb, "a@test.com", "123")

		firstName := "Ada"
		got, err := svc.EditUser(user.ID, EditUserParams{FirstName: &firstName})
		require.NoError(t, err)

		require.NotNil(t, got.FirstName)
		assert.Equal(t, "Ada", *got.FirstName)
		assert.Equal(t, "a@test.com", got.Email)
	})

	t.Run("email change", func(t *testing.T) {
		gdb := newTestDB(t)
		svc := NewUser(gdb)
		user := createTestUser(t, gdb, "a@test.com", "123")

		email := "b@test.com"
		got, err := svc.EditUser(user.ID, EditUserParams{Email: &email})
		require.NoError(t, err)
		assert.Equal(t, "b@test.com", got.Email)
	})

	t.Run("taken email is a conflict", func(t *testing.T) {
		gdb := newTestDB(t)
		svc := NewUser(gdb)
		user := createTestUser(t, gdb, "a@test.com", "123")
		createTestUser(t, gdb, "b@test.com", "123")

		email := "b@test.com"
		_, err := svc.EditUser(user.ID, EditUserParams{Email: &email})
		assert.ErrorIs(t, err, ErrCredentialsTaken)
	})

	t.Run("empty params still return the current record", func(t *testing.T) {
		gdb := newTestDB(t)
		svc := NewUser(gdb)
		user := createTestUser(t, gdb, "a@test.com", "123")

		got, err := svc.EditUser(user.ID, EditUserParams{})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "a@test.com", got.Email)
	})
}
