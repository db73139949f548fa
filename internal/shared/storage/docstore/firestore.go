// Package docstore holds the Firestore plumbing shared by the profile,
// account and review repositories.
package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names match the documents the web client already reads.
const (
	UsersCollection   = "users"
	CompanyCollection = "companyInfo"
	ReviewsCollection = "reviews"
)

// NewClient creates a Firestore client for the given project.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id must be provided")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

// IsNotFound reports whether err is Firestore's missing-document error.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
