package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/soundvault/pkg/internal/users"
)

type forgetRecorder struct {
	ids []uint
}

func (f *forgetRecorder) Forget(_ context.Context, id uint) error {
	f.ids = append(f.ids, id)

	return nil
}

func newService(t *testing.T) (*users.Service, *auth.Hasher, *forgetRecorder) {
	t.Helper()

	h := &auth.Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}
	rec := &forgetRecorder{}

	return users.NewService(dbtest.New(t).DB, h, 6, rec), h, rec
}

func validInput() users.CreateInput {
	return users.CreateInput{
		Username:  "turkish",
		Email:     "austin@baustin.com",
		Password:  "allegory",
		Password2: "allegory",
	}
}

func codes(t *testing.T, err error) []string {
	t.Helper()

	ve, ok := users.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)

	out := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		out = append(out, fe.Code)
	}

	return out
}

func TestCreateUser(t *testing.T) {
	svc, h, _ := newService(t)

	in := validInput()
	in.Username = "  Turkish "

	u, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "turkish", u.Username)
	assert.NotEqual(t, "allegory", u.PasswordHash)

	ok, err := h.Verify("allegory", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), users.CreateInput{
		Username:  "-bad-",
		Email:     "not-an-email",
		Password:  "abc",
		Password2: "abd",
	})
	assert.Equal(t, []string{
		users.CodeInvalidUsername,
		users.CodeInvalidEmail,
		users.CodePasswordTooShort,
		users.CodePasswordsDoNotMatch,
	}, codes(t, err))
}

func TestCreateUserTaken(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput())
	assert.Equal(t, []string{users.CodeUsernameTaken, users.CodeEmailTaken}, codes(t, err))
}

func TestUpdateUser(t *testing.T) {
	svc, h, rec := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	other := validInput()
	other.Username = "sasquatch"
	other.Email = "sas@quatch.com"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	name := "elizabeth"
	updated, err := svc.Update(ctx, u, users.UpdateInput{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "elizabeth", updated.Username)
	assert.Equal(t, "austin@baustin.com", updated.Email)
	assert.Equal(t, []uint{u.ID}, rec.ids)

	taken := "sasquatch"
	_, err = svc.Update(ctx, updated, users.UpdateInput{Username: &taken})
	assert.Equal(t, []string{users.CodeUsernameTaken}, codes(t, err))

	pw, mismatch := "newsecret", "other"
	_, err = svc.Update(ctx, updated, users.UpdateInput{Password: &pw, Password2: &mismatch})
	assert.Equal(t, []string{users.CodePasswordsDoNotMatch}, codes(t, err))

	updated, err = svc.Update(ctx, updated, users.UpdateInput{Password: &pw, Password2: &pw})
	require.NoError(t, err)

	ok, err := h.Verify("newsecret", updated.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
