// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"crypto/rand"
	"fmt"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/fsutil"
	"github.com/danielcregg/aws2023-wp/internal/issue"
)

//nolint:gochecknoglobals // Test seams for ownership changes that need root.
var (
	lookupOwner = fsutil.LookupOwner
	chownTree   = fsutil.ChownTree
)

// ownTree hands the tree at root to the configured account, with directories
// at 0755 and regular files at 0644.
func ownTree(root string, owner config.OwnerConfig) error {
	uid, gid, err := lookupOwner(owner.User, owner.Group)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("resolve web server account").
			WithResource(owner.User + ":" + owner.Group).
			WithSuggestion("Ensure the web server package is installed so its account exists").
			WithSuggestion("Or set owner.user and owner.group to an existing account").
			Wrap(err).
			BuildError()
	}
	if err := chownTree(root, uid, gid); err != nil {
		return err
	}
	return fsutil.ChmodTree(root, 0o755, 0o644)
}

// randomString draws n characters uniformly from alphabet.
func randomString(alphabet string, n int) (string, error) {
	// Bytes at or above limit are redrawn to keep the distribution uniform.
	limit := 256 - 256%len(alphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random data: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
