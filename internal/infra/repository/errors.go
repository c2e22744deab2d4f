package repository

import (
	"errors"

	repo "tableorder/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーに寄せる
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrConflict
	default:
		return err
	}
}
