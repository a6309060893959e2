package git

import "context"

// Resolver yields the current remote URL and branch, typically from the
// stored vault configuration.
type Resolver func() (url, branch string, err error)

// LazyRepo resolves the remote on every operation, so a vault
// configured or re-pointed while the worker is running takes effect on
// the next cycle without a restart.
type LazyRepo struct {
	dir      string
	credFile string
	resolve  Resolver
}

// OpenLazy prepares a lazily-resolved repo handle for the checkout at
// dir.
func OpenLazy(dir, credFile string, resolve Resolver) *LazyRepo {
	return &LazyRepo{dir: dir, credFile: credFile, resolve: resolve}
}

func (l *LazyRepo) open() (*Repo, error) {
	url, branch, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return Open(l.dir, url, branch, l.credFile), nil
}

func (l *LazyRepo) Ensure(ctx context.Context) error {
	r, err := l.open()
	if err != nil {
		return err
	}
	return r.Ensure(ctx)
}

func (l *LazyRepo) Pull(ctx context.Context) error {
	r, err := l.open()
	if err != nil {
		return err
	}
	return r.Pull(ctx)
}

func (l *LazyRepo) IsDirty(ctx context.Context) (bool, error) {
	r, err := l.open()
	if err != nil {
		return false, err
	}
	return r.IsDirty(ctx)
}

func (l *LazyRepo) CommitAll(ctx context.Context, message string) error {
	r, err := l.open()
	if err != nil {
		return err
	}
	return r.CommitAll(ctx, message)
}

func (l *LazyRepo) Push(ctx context.Context) error {
	r, err := l.open()
	if err != nil {
		return err
	}
	return r.Push(ctx)
}
