package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/quillmark/quillmark-back/internal/db"
)

type (
	EditUserParams struct {
		Email     *string
		FirstName *string
		LastName  *string
	}

	User struct {
		db *gorm.DB
	}
)

func NewUser(db *gorm.DB) *User {
	return &User{db: db}
}

// EditUser applies a partial update to the caller's own record. The id
// always comes from the authenticated identity, never from the request.
func (s *User) EditUser(userID uint64, p EditUserParams) (*db.User, error) {
	updates := map[string]interface{}{}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.FirstName != nil {
		updates["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		updates["last_name"] = *p.LastName
	}

	user := db.User{
		GormForkedModel: db.GormForkedModel{
			ID: userID,
		},
	}

	if len(updates) != 0 {
		res := s.db.Model(&user).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, ErrCredentialsTaken
			}
			return nil, errors.Wrap(res.Error, "update user")
		}
	}

	res := s.db.First(&user)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get user")
	}

	return &user, nil
}
