package gormstore

import (
	"context"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return oops.Code("CONTACT_CREATE_FAILED").Wrap(err)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&contacts).Error; err != nil {
		return nil, oops.Code("CONTACT_LIST_FAILED").Wrap(err)
	}
	return contacts, nil
}

func (r *contactRepository) SetRead(ctx context.Context, id int64, read bool) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ?", id).
		Update("is_read", read)
	if result.Error != nil {
		return oops.Code("CONTACT_UPDATE_FAILED").With("id", id).Wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return oops.Code("CONTACT_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}
	return nil
}
