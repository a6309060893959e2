package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLazyRepoResolveErrorPropagates(t *testing.T) {
	wantErr := errors.New("not configured")
	r := OpenLazy(t.TempDir(), "", func() (string, string, error) {
		return "", "", wantErr
	})

	ctx := context.Background()
	assert.ErrorIs(t, r.Ensure(ctx), wantErr)
	assert.ErrorIs(t, r.Pull(ctx), wantErr)
	assert.ErrorIs(t, r.Push(ctx), wantErr)
	assert.ErrorIs(t, r.CommitAll(ctx, "msg"), wantErr)

	_, err := r.IsDirty(ctx)
	assert.ErrorIs(t, err, wantErr)
}

func TestLazyRepoPicksUpNewRemote(t *testing.T) {
	url, branch := "", ""
	r := OpenLazy(t.TempDir(), "/tmp/creds", func() (string, string, error) {
		return url, branch, nil
	})

	repo, err := r.open()
	assert.NoError(t, err)
	assert.Equal(t, "main", repo.branch, "empty branch defaults to main")

	url, branch = "https://github.com/user/vault.git", "notes"
	repo, err = r.open()
	assert.NoError(t, err)
	assert.Equal(t, "https://github.com/user/vault.git", repo.url)
	assert.Equal(t, "notes", repo.branch)
}
