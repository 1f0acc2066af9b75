package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillmark/quillmark-back/internal/config"
	"github.com/quillmark/quillmark-back/internal/db"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&db.User{}, &db.Bookmark{}))

	return gdb
}

func newTestAuth(t *testing.T, gdb *gorm.DB) *Auth {
	t.Helper()
	return NewAuth(gdb, &config.Config{JWTSecret: testSecret}, zap.NewNop().Sugar())
}

// createTestUser seeds a user directly, with a cheap hash so fixtures stay
// fast; hash cost only matters for SignUp itself.
func createTestUser(t *testing.T, gdb *gorm.DB, email, pass string) *db.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	require.NoError(t, err)

	user := db.User{
		Email:    email,
		Password: string(hash),
	}
	require.NoError(t, gdb.Create(&user).Error)
	return &user
}

func createTestBookmark(t *testing.T, gdb *gorm.DB, userID uint64, title, link string) *db.Bookmark {
	t.Helper()

	model := db.Bookmark{
		Title:  title,
		Link:   link,
		UserID: userID,
	}
	require.NoError(t, gdb.Create(&model).Error)
	return &model
}
