package repo

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/odvcencio/pal/pkg/object"
)

// Archive writes the tree named by treeish to w as a zstd-compressed tar
// stream. Every entry name is prefixed with prefix (e.g. "project/").
// Symlinks are stored as tar links.
func (r *Repo) Archive(w io.Writer, treeish, prefix string) error {
	treeHash, err := r.ResolveTree(treeish)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	files, err := r.FlattenTree(treeHash)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	// commits stamp entries with the commit time so archives are
	// reproducible
	modTime := time.Unix(0, 0)
	if commitHash, err := r.FindObject(treeish, object.TypeCommit, true); err == nil {
		if c, err := r.readCommit(commitHash); err == nil {
			if id, err := c.Committer(); err == nil {
				modTime = id.When
			}
		}
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	tw := tar.NewWriter(enc)
	for _, f := range files {
		blob, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			enc.Close()
			return fmt.Errorf("archive: %s: %w", f.Path, err)
		}
		hdr := &tar.Header{
			Name:    path.Join(prefix, f.Path),
			ModTime: modTime,
			Format:  tar.FormatPAX,
		}
		if normalizeFileMode(f.Mode) == object.TreeModeSymlink {
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = string(blob.Data)
			hdr.Mode = 0o777
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Mode = int64(filePermFromMode(f.Mode))
			hdr.Size = int64(len(blob.Data))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			enc.Close()
			return fmt.Errorf("archive: %s: %w", f.Path, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write(blob.Data); err != nil {
				enc.Close()
				return fmt.Errorf("archive: %s: %w", f.Path, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		enc.Close()
		return fmt.Errorf("archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	r.log.WithField("files", len(files)).Debug("archive written")
	return nil
}
