// SPDX-License-Identifier: MPL-2.0

// Package archive extracts gzip-compressed tarballs, the distribution format
// used by both wordpress.org and phpmyadmin.net releases. Entry names and
// symlink targets are validated so a hostile archive cannot write outside the
// extraction root, and per-file plus whole-tree size bounds guard against
// decompression bombs.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	// defaultMaxFileBytes is the upper bound on a single extracted file (500 MB).
	defaultMaxFileBytes = 500 << 20

	// defaultMaxTotalBytes is the upper bound on the extracted tree (2 GB).
	defaultMaxTotalBytes = 2 << 30
)

var (
	// ErrUnsafePath indicates a tar entry or symlink target that would land
	// outside the extraction root.
	ErrUnsafePath = errors.New("unsafe path in archive")

	// ErrSizeLimit indicates the archive exceeded a configured size bound.
	ErrSizeLimit = errors.New("archive exceeds size limit")
)

type (
	// Summary reports what an extraction wrote.
	Summary struct {
		Files int   // Regular files written
		Dirs  int   // Directories created
		Bytes int64 // Total bytes of file content written
	}

	// extractOptions holds the tunable extraction settings.
	extractOptions struct {
		stripComponents int
		maxFileBytes    int64
		maxTotalBytes   int64
	}

	// Option adjusts extraction behavior.
	Option func(*extractOptions)
)

// WithStripComponents drops the leading n path components from every entry,
// like tar --strip-components. Entries with no remaining components are
// skipped. Release tarballs wrap their content in a single top-level
// directory, so n=1 unwraps them.
func WithStripComponents(n int) Option {
	return func(o *extractOptions) {
		o.stripComponents = n
	}
}

// WithMaxFileBytes overrides the single-file size bound.
func WithMaxFileBytes(n int64) Option {
	return func(o *extractOptions) {
		o.maxFileBytes = n
	}
}

// WithMaxTotalBytes overrides the whole-tree size bound.
func WithMaxTotalBytes(n int64) Option {
	return func(o *extractOptions) {
		o.maxTotalBytes = n
	}
}

// ExtractTarGz unpacks the tar.gz archive at archivePath into destDir and
// reports what it wrote. Directories, regular files, and symlinks that stay
// inside destDir are materialized; a pax global header is skipped; any other
// entry type is an error.
func ExtractTarGz(ctx context.Context, archivePath, destDir string, opts ...Option) (*Summary, error) {
	o := extractOptions{
		maxFileBytes:  defaultMaxFileBytes,
		maxTotalBytes: defaultMaxTotalBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	sum := &Summary{}
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nil, fmt.Errorf("reading tar entry: %w", nextErr)
		}

		// GitHub-style tarballs open with a pax global header; nothing to write.
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		rel, keep, err := entryPath(hdr.Name, o.stripComponents)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		target := filepath.Join(destDir, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", rel, err)
			}
			sum.Dirs++

		case tar.TypeReg:
			n, err := writeEntry(target, hdr.FileInfo().Mode().Perm(), tr, o.maxFileBytes)
			if err != nil {
				return nil, fmt.Errorf("extracting %s: %w", rel, err)
			}
			sum.Files++
			sum.Bytes += n
			if sum.Bytes > o.maxTotalBytes {
				return nil, fmt.Errorf("%w: extracted tree is larger than %d bytes", ErrSizeLimit, o.maxTotalBytes)
			}

		case tar.TypeSymlink:
			if err := checkLinkTarget(rel, hdr.Linkname); err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("creating parent for %s: %w", rel, err)
			}
			// Replace any file left by a previous partial extraction.
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return nil, fmt.Errorf("creating symlink %s: %w", rel, err)
			}

		default:
			return nil, fmt.Errorf("unsupported entry type %q for %s", hdr.Typeflag, rel)
		}
	}

	return sum, nil
}

// entryPath validates a tar entry name and applies component stripping. The
// returned path is slash-separated and relative to the extraction root; keep
// is false when the entry should be skipped (empty name, the root itself, or
// a name fully consumed by stripping).
func entryPath(name string, strip int) (rel string, keep bool, err error) {
	if name == "" {
		return "", false, nil
	}

	clean := path.Clean(name)
	if clean == "." {
		return "", false, nil
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false, fmt.Errorf("%w: entry %q", ErrUnsafePath, name)
	}

	if strip > 0 {
		parts := strings.Split(clean, "/")
		if len(parts) <= strip {
			return "", false, nil
		}
		clean = path.Join(parts[strip:]...)
	}

	return clean, true, nil
}

// checkLinkTarget rejects symlink targets that resolve outside the extraction
// root. The check is lexical because the target may not exist yet at the time
// the link entry is read.
func checkLinkTarget(entryRel, linkname string) error {
	if linkname == "" || path.IsAbs(linkname) || filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: symlink %s targets %q", ErrUnsafePath, entryRel, linkname)
	}
	resolved := path.Join(path.Dir(entryRel), linkname)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return fmt.Errorf("%w: symlink %s targets %q", ErrUnsafePath, entryRel, linkname)
	}
	return nil
}

// writeEntry writes one regular file, creating parent directories as needed.
// It reads one byte past limit so an oversized entry is detected rather than
// silently truncated.
func writeEntry(target string, perm os.FileMode, r io.Reader, limit int64) (_ int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}
	if n > limit {
		return 0, fmt.Errorf("%w: file is larger than %d bytes", ErrSizeLimit, limit)
	}

	return n, nil
}
