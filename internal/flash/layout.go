package flash

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Layout describes where the build system places compiled images.
// Template may use the {root}, {target}, {profile} and {platform}
// placeholders and must contain {profile}.
type Layout struct {
	Root     string
	Target   string
	Platform string
	Template string
}

// Artifact is the resolved location of a compiled firmware image.
type Artifact struct {
	Path     string
	Root     string
	Target   string
	Platform string
	Profile  BuildProfile
}

func (l Layout) Validate() error {
	var missing []string
	if l.Root == "" {
		missing = append(missing, "root")
	}
	if l.Platform == "" {
		missing = append(missing, "platform")
	}
	if l.Template == "" {
		missing = append(missing, "template")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidLayout, strings.Join(missing, ", "))
	}
	if !strings.Contains(l.Template, "{profile}") {
		return fmt.Errorf("%w: template %q has no {profile} placeholder", ErrInvalidLayout, l.Template)
	}
	if strings.Contains(l.Template, "{target}") && l.Target == "" {
		return fmt.Errorf("%w: template %q needs a target triple", ErrInvalidLayout, l.Template)
	}
	return nil
}

// Resolve computes the artifact path for op built with profile. It does
// not look at the filesystem.
func (l Layout) Resolve(op Operation, profile BuildProfile) (Artifact, error) {
	if !op.Known() {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if op.Profile() != profile {
		return Artifact{}, fmt.Errorf("%w: %s requires %s, got %q", ErrProfileMismatch, op, op.Profile(), profile)
	}
	if err := l.Validate(); err != nil {
		return Artifact{}, err
	}

	a := Artifact{
		Root:     l.Root,
		Target:   l.Target,
		Platform: l.Platform,
		Profile:  profile,
	}
	a.Path = filepath.Clean(a.Expand(l.Template))
	return a, nil
}

// Expand substitutes the artifact's coordinates into tmpl.
func (a Artifact) Expand(tmpl string) string {
	return strings.NewReplacer(
		"{root}", a.Root,
		"{target}", a.Target,
		"{profile}", string(a.Profile),
		"{platform}", a.Platform,
	).Replace(tmpl)
}
