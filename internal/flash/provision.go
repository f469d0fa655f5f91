package flash

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloupeer.io/cpeer-flash/pkg/log"
)

// Provisioner makes sure an artifact exists before the programmer runs.
// Without a Builder or Fetcher it only checks the path.
type Provisioner struct {
	builder Builder
	fetcher Fetcher
	always  bool
	logger  log.Logger
	exists  func(path string) bool
}

type ProvisionerOption func(*Provisioner)

// WithBuilder triggers builder when the artifact is missing. With always
// set the builder runs on every invocation.
func WithBuilder(builder Builder, always bool) ProvisionerOption {
	return func(p *Provisioner) {
		p.builder = builder
		p.always = always
	}
}

// WithFetcher consults fetcher when the artifact is still missing after the build step.
func WithFetcher(fetcher Fetcher) ProvisionerOption {
	return func(p *Provisioner) {
		p.fetcher = fetcher
	}
}

func WithProvisionerLogger(logger log.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

func NewProvisioner(opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{logger: log.Std(), exists: fileExists}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure returns nil once artifact exists as a regular file, or an
// *ArtifactNotFoundError carrying the build or fetch failure. A failed build
// is terminal even if an older artifact is still on disk.
func (p *Provisioner) Ensure(ctx context.Context, artifact Artifact) error {
	var cause error

	if p.builder != nil && (p.always || !p.exists(artifact.Path)) {
		if err := p.builder.Build(ctx, artifact); err != nil {
			return &ArtifactNotFoundError{Path: artifact.Path, Err: fmt.Errorf("build failed: %w", err)}
		}
	}
	if p.exists(artifact.Path) {
		return nil
	}

	if p.fetcher != nil {
		err := p.fetcher.Fetch(ctx, artifact)
		switch {
		case err == nil && p.exists(artifact.Path):
			return nil
		case err == nil:
			cause = errors.Join(cause, fmt.Errorf("fetch reported success but %s is missing", artifact.Path))
		case errors.Is(err, ErrObjectNotFound):
			p.logger.Debug("Artifact not in store", "path", artifact.Path)
			cause = errors.Join(cause, err)
		default:
			cause = errors.Join(cause, err)
		}
	}

	return &ArtifactNotFoundError{Path: artifact.Path, Err: cause}
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
