package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/pal/pkg/object"
)

// TagInfo describes one entry under refs/tags/.
type TagInfo struct {
	Name   string
	Hash   object.Hash // what the ref holds: a tag object or any other object
	Target object.Hash // the object after peeling annotated tags
	Tag    *object.Tag // nil for lightweight tags
}

// CreateTag points refs/tags/<name> directly at the object target names.
// Without force an existing tag is an error.
func (r *Repo) CreateTag(name, target string, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateRefName(name); err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}
	h, err := r.FindObject(target, "", false)
	if err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}
	if err := r.writeTagRef(name, h, force); err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}
	return h, nil
}

// CreateAnnotatedTag stores a tag object pointing at target and points
// refs/tags/<name> at it. An empty tagger falls back to DefaultIdentity.
func (r *Repo) CreateAnnotatedTag(name, target, tagger, message string, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateRefName(name); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("create annotated tag: message is required")
	}
	if strings.TrimSpace(tagger) == "" {
		tagger = r.DefaultIdentity()
	}

	targetHash, err := r.FindObject(target, "", false)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	targetType, _, err := r.Store.Read(targetHash)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: read target %s: %w", targetHash, err)
	}

	tag := object.NewTag(targetHash, targetType, name, object.NewIdentity(tagger, time.Now()), message+"\n")
	tagHash, err := r.Store.WriteObject(tag)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: write tag object: %w", err)
	}
	if err := r.writeTagRef(name, tagHash, force); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	return tagHash, nil
}

func (r *Repo) writeTagRef(name string, h object.Hash, force bool) error {
	refName := "refs/tags/" + name
	var err error
	if force {
		err = r.updateRef(refName, h, "tag")
	} else {
		err = r.updateRef(refName, h, "tag", "")
	}
	if errors.Is(err, ErrRefCASMismatch) {
		return fmt.Errorf("tag %q already exists", name)
	}
	return err
}

// DeleteTag removes refs/tags/<name>.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := r.DeleteRef("refs/tags/" + name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ResolveTag returns what refs/tags/<name> holds, or "" when it does not
// exist.
func (r *Repo) ResolveTag(name string) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateRefName(name); err != nil {
		return "", fmt.Errorf("resolve tag: %w", err)
	}
	return r.ResolveRef("refs/tags/" + name)
}

// ListTags lists tags sorted by name, peeling annotated tags.
func (r *Repo) ListTags() ([]TagInfo, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	out := make([]TagInfo, 0, len(refs))
	for _, ref := range refs {
		info := TagInfo{
			Name:   strings.TrimPrefix(ref.Name, "refs/tags/"),
			Hash:   ref.Hash,
			Target: ref.Hash,
		}
		objType, data, err := r.Store.Read(ref.Hash)
		if err != nil {
			return nil, fmt.Errorf("list tags: %s: %w", info.Name, err)
		}
		if objType == object.TypeTag {
			tag, err := object.ParseTag(data)
			if err != nil {
				return nil, fmt.Errorf("list tags: %s: %w", info.Name, err)
			}
			info.Tag = tag
			info.Target = tag.Target()
		}
		out = append(out, info)
	}
	return out, nil
}
