package repository

import (
	"context"

	"heartbridge/internal/cache"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
)

// UserRepository defines persistence operations for member profiles.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.User, error)
	// Save creates or replaces the profile stored under user.UID.
	Save(ctx context.Context, user *models.User) error
	Update(ctx context.Context, uid string, fields docstore.Fields) error
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context, opts ListOptions) (Page[models.User], error)
}

type userRepository struct {
	store  docstore.Store
	logger *observability.RepoLogger
}

// NewUserRepository returns a UserRepository over store.
func NewUserRepository(store docstore.Store) UserRepository {
	return &userRepository{
		store:  store,
		logger: observability.NewRepoLogger(models.CollectionUsers),
	}
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(uid), &user, cache.UserTTL, func() error {
		doc, err := getDocument(ctx, r.store, r.logger, models.CollectionUsers, uid, func() error {
			return models.NewNotFoundError("User", uid)
		})
		if err != nil {
			return err
		}
		decoded, err := models.UserFromDocument(*doc)
		if err != nil {
			r.logger.LogMalformed(ctx, uid, err)
			return models.NewInternalError(err)
		}
		user = *decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	if err := r.store.Set(ctx, models.CollectionUsers, user.UID, user.Fields()); err != nil {
		r.logger.LogError(ctx, err, "save")
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.UID)
	r.logger.LogCreate(ctx, map[string]any{"uid": user.UID, "role": user.Role})
	return nil
}

func (r *userRepository) Update(ctx context.Context, uid string, fields docstore.Fields) error {
	if err := r.store.Update(ctx, models.CollectionUsers, uid, fields); err != nil {
		r.logger.LogError(ctx, err, "update")
		return storeError(err, func() error { return models.NewNotFoundError("User", uid) })
	}
	cache.InvalidateUser(ctx, uid)
	r.logger.LogUpdate(ctx, map[string]any{"uid": uid})
	return nil
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	if err := r.store.Delete(ctx, models.CollectionUsers, uid); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, uid)
	r.logger.LogDelete(ctx, map[string]any{"uid": uid})
	return nil
}

func (r *userRepository) List(ctx context.Context, opts ListOptions) (Page[models.User], error) {
	return queryPage(ctx, r.store, r.logger, newestFirst(models.CollectionUsers, opts), models.UserFromDocument)
}
