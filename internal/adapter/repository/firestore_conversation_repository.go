package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/internal/infrastructure/listeners"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
	"convochat/pkg/utils"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection)
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (entity.Conversation, error) {
	snap, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	conversation, err := decodeConversation(snap)
	if err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return conversation, nil
}

func (r *firestoreConversationRepository) GetByParticipants(ctx context.Context, a, b string) (*entity.DirectConversation, error) {
	id := utils.ConversationIDForUsers(a, b)
	conversation, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	direct, ok := conversation.(*entity.DirectConversation)
	if !ok {
		return nil, errors.Internal("Conversation "+id+" is not a direct conversation", nil)
	}
	return direct, nil
}

// CreateDirectIfMissing creates the pair's conversation only when no document
// exists at the derived id. Concurrent callers race on the same id, the loser
// gets AlreadyExists, and both read back the single stored document.
func (r *firestoreConversationRepository) CreateDirectIfMissing(ctx context.Context, a, b string) (*entity.DirectConversation, error) {
	if a == "" || b == "" {
		return nil, errors.Validation("Both participants are required")
	}
	if a == b {
		return nil, errors.Validation("A direct conversation needs two different participants")
	}

	id := utils.ConversationIDForUsers(a, b)
	ref := r.conversations().Doc(id)

	_, err := ref.Create(ctx, map[string]interface{}{
		"type":         string(entity.ConversationDirect),
		"participants": utils.DedupeParticipants([]string{a, b}),
		"createdAt":    firestore.ServerTimestamp,
		"lastActivity": firestore.ServerTimestamp,
		"lastMessage":  nil,
		"lastReadBy": map[string]interface{}{
			a: firestore.ServerTimestamp,
			b: firestore.ServerTimestamp,
		},
		"unreadCount": map[string]interface{}{
			a: 0,
			b: 0,
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return nil, errors.Internal("Failed to create conversation", err)
	}
	if err == nil {
		logger.Debug("Created direct conversation %s", id)
	}

	direct, err := r.GetByParticipants(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if direct == nil {
		return nil, errors.Internal("Conversation "+id+" missing after create", nil)
	}
	return direct, nil
}

func (r *firestoreConversationRepository) GetOrCreateDirect(ctx context.Context, a, b string) (*entity.DirectConversation, error) {
	existing, err := r.GetByParticipants(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return r.CreateDirectIfMissing(ctx, a, b)
}

func (r *firestoreConversationRepository) MarkReadForUser(ctx context.Context, conversationID, uid string) error {
	return r.markRead(ctx, conversationID, uid)
}

// MarkGroupReadForUser addresses the reader's keys by field path so a send
// bumping another member's counter in the same map is never overwritten.
func (r *firestoreConversationRepository) MarkGroupReadForUser(ctx context.Context, conversationID, uid string) error {
	return r.markRead(ctx, conversationID, uid)
}

func (r *firestoreConversationRepository) markRead(ctx context.Context, conversationID, uid string) error {
	_, err := r.conversations().Doc(conversationID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"lastReadBy", uid}, Value: firestore.ServerTimestamp},
		{FieldPath: firestore.FieldPath{"unreadCount", uid}, Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to mark conversation as read", err)
	}
	return nil
}

func (r *firestoreConversationRepository) orderedQuery(uid string) firestore.Query {
	return r.conversations().
		Where("participants", "array-contains", uid).
		OrderBy("lastActivity", firestore.Desc)
}

func (r *firestoreConversationRepository) orderedGroupsQuery(uid string) firestore.Query {
	return r.conversations().
		Where("type", "==", string(entity.ConversationGroup)).
		Where("participants", "array-contains", uid).
		OrderBy("lastActivity", firestore.Desc)
}

func (r *firestoreConversationRepository) ListOrdered(ctx context.Context, uid string) ([]entity.ConversationListItem, error) {
	docs, err := r.orderedQuery(uid).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", uid, err)
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	return listItems(uid, docs, skipBadConversation), nil
}

func (r *firestoreConversationRepository) ListGroupsOrdered(ctx context.Context, uid string) ([]entity.ConversationListItem, error) {
	docs, err := r.orderedGroupsQuery(uid).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching groups for user %s: %v", uid, err)
		return nil, errors.Internal("Failed to fetch groups", err)
	}
	return listItems(uid, docs, skipBadConversation), nil
}

func (r *firestoreConversationRepository) SubscribeOrdered(uid string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe {
	return subscribeQuery(listeners.ConversationsKey(uid), r.orderedQuery(uid), func(docs []*firestore.DocumentSnapshot) {
		onNext(listItems(uid, docs, skipBadConversation))
	}, onError)
}

func (r *firestoreConversationRepository) SubscribeGroupsOrdered(uid string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe {
	return subscribeQuery(listeners.GroupsKey(uid), r.orderedGroupsQuery(uid), func(docs []*firestore.DocumentSnapshot) {
		onNext(listItems(uid, docs, skipBadConversation))
	}, onError)
}

func skipBadConversation(id string, err error) {
	logger.Warn("Skipping unreadable conversation %s: %v", id, err)
}

func (r *firestoreConversationRepository) FindGroupByParticipantsKey(ctx context.Context, key string) (*entity.GroupConversation, error) {
	iter := r.conversations().
		Where("type", "==", string(entity.ConversationGroup)).
		Where("participantsKey", "==", key).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Internal("Failed to query groups by participants key", err)
	}

	conversation, err := decodeConversation(snap)
	if err != nil {
		return nil, errors.Internal("Failed to parse group data", err)
	}
	group, ok := conversation.(*entity.GroupConversation)
	if !ok {
		return nil, errors.Internal("Conversation "+snap.Ref.ID+" is not a group", nil)
	}
	return group, nil
}

// CreateGroup writes the group together with a guard document keyed by the
// participant fingerprint, in one transaction. A second group with the same
// member set fails with CONFLICT instead of being created.
func (r *firestoreConversationRepository) CreateGroup(ctx context.Context, input entity.NewGroupInput) (*entity.GroupConversation, error) {
	participants := utils.DedupeParticipants(input.Participants)
	if len(participants) < entity.MinGroupParticipants {
		return nil, errors.Validation("Group must have at least 3 participants")
	}
	key := utils.ParticipantsKey(participants)

	unread := make(map[string]interface{}, len(participants))
	lastRead := make(map[string]interface{}, len(participants))
	for _, uid := range participants {
		unread[uid] = 0
		lastRead[uid] = nil
	}

	var title interface{}
	if input.Title != "" {
		title = input.Title
	}

	ref := r.conversations().Doc(uuid.New().String())
	guard := r.client.Collection(groupKeysCollection).Doc(groupGuardID(key))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Get(guard)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if existing != nil && existing.Exists() {
			return errors.Conflict("A group with these participants already exists")
		}

		if err := tx.Create(guard, map[string]interface{}{
			"conversationId":  ref.ID,
			"participantsKey": key,
			"createdAt":       firestore.ServerTimestamp,
		}); err != nil {
			return err
		}

		return tx.Create(ref, map[string]interface{}{
			"type":            string(entity.ConversationGroup),
			"title":           title,
			"participants":    participants,
			"participantsKey": key,
			"createdBy":       input.CreatedBy,
			"createdAt":       firestore.ServerTimestamp,
			"lastActivity":    firestore.ServerTimestamp,
			"lastMessage":     nil,
			"lastReadBy":      lastRead,
			"unreadCount":     unread,
		})
	})
	if err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, err
		}
		return nil, errors.Internal("Failed to create group", err)
	}

	logger.Info("Created group %s with %d participants", ref.ID, len(participants))

	conversation, err := r.GetByID(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	group, ok := conversation.(*entity.GroupConversation)
	if !ok {
		return nil, errors.Internal("Conversation "+ref.ID+" is not a group", nil)
	}
	return group, nil
}

// groupGuardID hashes the fingerprint so arbitrarily long member lists still
// fit a document id.
func groupGuardID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
