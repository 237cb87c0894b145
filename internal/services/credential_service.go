package services

import (
	"context"
	"fmt"
	"time"

	"aura/internal/database"
	"aura/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CredentialService reads and writes per-account API credentials. The token
// exchange flow that mints these lives in a separate service; the pipeline
// treats a missing or expired credential as "this account has no data today".
type CredentialService struct {
	collection *mongo.Collection
}

// NewCredentialService creates a credential service backed by MongoDB.
func NewCredentialService(mongodb *database.MongoDB) *CredentialService {
	return &CredentialService{
		collection: mongodb.Collection(database.CollectionCredentials),
	}
}

// AccessToken returns a usable access token for an account. The boolean is
// false when the account has no stored credential or the token is expired.
func (s *CredentialService) AccessToken(ctx context.Context, accountEmail string) (string, bool, error) {
	var cred models.AccountCredential
	err := s.collection.FindOne(ctx, bson.M{"accountEmail": accountEmail}).Decode(&cred)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load credential for %s: %w", accountEmail, err)
	}
	if cred.AccessToken == "" || cred.Expired(time.Now()) {
		return "", false, nil
	}
	return cred.AccessToken, true, nil
}

// Upsert stores a credential document for an account.
func (s *CredentialService) Upsert(ctx context.Context, cred *models.AccountCredential) error {
	cred.UpdatedAt = time.Now()
	opts := options.Update().SetUpsert(true)
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"accountEmail": cred.AccountEmail},
		bson.M{"$set": cred},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential for %s: %w", cred.AccountEmail, err)
	}
	return nil
}
