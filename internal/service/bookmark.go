package service

import (
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/quillmark/quillmark-back/internal/db"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrAccessDenied     = errors.New("access denied")
)

type (
	EditBookmarkParams struct {
		Title       *string
		Link        *string
		Description *string
	}

	Bookmark struct {
		db *gorm.DB
	}
)

func NewBookmark(db *gorm.DB) *Bookmark {
	return &Bookmark{db: db}
}

func (s *Bookmark) Create(userID uint64, title, link string, description *string) (*db.Bookmark, error) {
	model := db.Bookmark{
		Title:       title,
		Link:        link,
		Description: description,
		UserID:      userID,
	}

	res := s.db.Create(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create bookmark")
	}

	return &model, nil
}

// List returns the caller's bookmarks ordered by id ascending, which is
// creation order since ids are assigned monotonically.
func (s *Bookmark) List(userID uint64) ([]db.Bookmark, error) {
	sql, args, err := squirrel.
		Select("id", "title", "link", "description", "user_id", "created_at", "updated_at").
		From("bookmarks").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	bookmarks := make([]db.Bookmark, 0)
	res := s.db.Raw(sql, args...).Scan(&bookmarks)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	return bookmarks, nil
}

// GetByID filters by owner in the query itself: a bookmark that is absent
// and one that belongs to someone else both come back as (nil, nil), so a
// caller cannot probe foreign ids for existence.
func (s *Bookmark) GetByID(userID, bookmarkID uint64) (*db.Bookmark, error) {
	model := db.Bookmark{}
	res := s.db.Where("id = ? AND user_id = ?", bookmarkID, userID).First(&model)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(res.Error, "get bookmark")
	}
	return &model, nil
}

func (s *Bookmark) Edit(userID, bookmarkID uint64, p EditBookmarkParams) (*db.Bookmark, error) {
	if err := s.checkOwner(userID, bookmarkID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Link != nil {
		updates["link"] = *p.Link
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}

	model := db.Bookmark{
		GormForkedModel: db.GormForkedModel{
			ID: bookmarkID,
		},
	}

	if len(updates) != 0 {
		res := s.db.Model(&model).Updates(updates)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "update bookmark")
		}
	}

	res := s.db.First(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get bookmark")
	}

	return &model, nil
}

func (s *Bookmark) Delete(userID, bookmarkID uint64) error {
	if err := s.checkOwner(userID, bookmarkID); err != nil {
		return err
	}

	res := s.db.Delete(&db.Bookmark{}, bookmarkID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete bookmark")
	}
	return nil
}

// checkOwner resolves existence before ownership so that a missing id and
// a foreign id stay distinguishable (NotFound vs AccessDenied).
func (s *Bookmark) checkOwner(userID, bookmarkID uint64) error {
	model := db.Bookmark{}
	res := s.db.Select("id", "user_id").Where("id = ?", bookmarkID).First(&model)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrBookmarkNotFound
		}
		return errors.Wrap(res.Error, "get bookmark owner")
	}
	if model.UserID != userID {
		return ErrAccessDenied
	}
	return nil
}
