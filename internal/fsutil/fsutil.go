// SPDX-License-Identifier: MPL-2.0

// Package fsutil provides the filesystem primitives the install steps are
// built on: atomic file replacement, recursive ownership and permission
// fixes, and existence probes used as step sentinels.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// WriteFileAtomic writes data to path by writing a temp file in the same
// directory and renaming it over the target. A crash mid-write leaves either
// the old file or the new one, never a truncated mix.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	// Remove the temp file on any failure path.
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	tmpPath = ""

	return nil
}

// LookupOwner resolves a user and group name to numeric IDs.
func LookupOwner(userName, groupName string) (uid, gid int, err error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to look up user %q: %w", userName, err)
	}
	g, err := user.LookupGroup(groupName)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to look up group %q: %w", groupName, err)
	}

	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric uid %q for user %q: %w", u.Uid, userName, err)
	}
	gid, err = strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric gid %q for group %q: %w", g.Gid, groupName, err)
	}

	return uid, gid, nil
}

// ChownTree sets ownership of root and everything under it.
// Symlinks are chowned themselves, not their targets.
func ChownTree(root string, uid, gid int) error {
	return filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := os.Lchown(path, uid, gid); err != nil {
			return fmt.Errorf("failed to chown %s: %w", path, err)
		}
		return nil
	})
}

// ChmodTree applies dirMode to every directory and fileMode to every regular
// file under root. Symlinks are left alone.
func ChmodTree(root string, dirMode, fileMode os.FileMode) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			if err := os.Chmod(path, dirMode); err != nil {
				return fmt.Errorf("failed to chmod %s: %w", path, err)
			}
		case d.Type().IsRegular():
			if err := os.Chmod(path, fileMode); err != nil {
				return fmt.Errorf("failed to chmod %s: %w", path, err)
			}
		}
		return nil
	})
}

// MoveMerge moves the contents of srcDir into dstDir, creating dstDir if
// needed. Top-level entries are renamed into place; entries that already
// exist in dstDir cause an error rather than being overwritten.
func MoveMerge(srcDir, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dstDir, err)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		if _, err := os.Lstat(dst); err == nil {
			return fmt.Errorf("refusing to overwrite existing %s", dst)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
		}
	}

	return nil
}
