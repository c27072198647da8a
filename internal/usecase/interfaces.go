package usecase

import "context"

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	GenerateToken(ctx context.Context, uid string) (string, error)
	SignInWithEmailPassword(email, password string) (string, error)
	UpdateUserPassword(ctx context.Context, uid, newPassword string) error
}

// EnrichmentService classifies and embeds listing text. Both calls are
// best-effort; callers must tolerate failure.
type EnrichmentService interface {
	ClassifyListing(ctx context.Context, title, description string) (string, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
