package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

// Upsert merges the profile fields of user and marks them online. createdAt
// is only written the first time the profile is stored.
func (r *firestoreUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	displayName := user.DisplayName
	if displayName == "" {
		displayName = entity.DisplayNameFromEmail(user.Email)
	}

	ref := r.client.Collection(usersCollection).Doc(user.UID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		data := map[string]interface{}{
			"uid":         user.UID,
			"email":       user.Email,
			"displayName": displayName,
			"isOnline":    true,
			"lastSeen":    firestore.ServerTimestamp,
		}
		if user.Avatar != "" {
			data["avatar"] = user.Avatar
		}
		if snap == nil || !snap.Exists() {
			data["createdAt"] = firestore.ServerTimestamp
		}
		return tx.Set(ref, data, firestore.MergeAll)
	})
	if err != nil {
		return errors.Internal("Failed to upsert user profile", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.UID = doc.Ref.ID
	return &user, nil
}

func (r *firestoreUserRepository) SetOnlineStatus(ctx context.Context, uid string, online bool) error {
	_, err := r.client.Collection(usersCollection).Doc(uid).Set(ctx, map[string]interface{}{
		"isOnline": online,
		"lastSeen": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update online status", err)
	}
	return nil
}

func (r *firestoreUserRepository) ListOrderedByName(ctx context.Context, limit int) ([]*entity.User, error) {
	docs, err := r.client.Collection(usersCollection).
		OrderBy("displayName", firestore.Asc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list users", err)
	}

	users := make([]*entity.User, 0, len(docs))
	for _, doc := range docs {
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			continue // Skip malformed documents
		}
		user.UID = doc.Ref.ID
		users = append(users, &user)
	}
	return users, nil
}
