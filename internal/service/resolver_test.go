package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Alice"
	external := "ext-7f3a"
	alice, err := f.users.Create(ctx, CreateUserInput{Email: "alice@example.com", Name: &name, ExternalID: &external})
	require.NoError(t, err)

	byID, err := f.resolver.Resolve(ctx, alice.ID.String(), "")
	require.NoError(t, err)
	byExternal, err := f.resolver.Resolve(ctx, external, "")
	require.NoError(t, err)
	require.Equal(t, byID.ID, byExternal.ID)
	require.Equal(t, alice.ID, byID.ID)

	byEmail, err := f.resolver.Resolve(ctx, "unknown-subject", "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, byEmail.ID)
}

func TestResolver_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, "", "alice@example.com")
	requireKind(t, err, KindUnauthorized)

	_, err = f.resolver.Resolve(ctx, uuid.NewString(), "")
	requireKind(t, err, KindNotFound)
	require.Equal(t, "User not found in database", MessageOf(err))

	_, err = f.resolver.Resolve(ctx, uuid.NewString(), "nobody@example.com")
	requireKind(t, err, KindNotFound)
}
