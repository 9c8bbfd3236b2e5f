package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token and returns the uid it was issued to.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// Identity is the profile Firebase Auth holds for a uid.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

func (f *FirebaseAuthClient) LookupIdentity(ctx context.Context, uid string) (*Identity, error) {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}, nil
}
