// Package blobpath extracts the pipeline-relevant parts of an Azure blob URL.
package blobpath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks blob URLs whose path cannot be split into
// container, owner and subdirectory segments.
var ErrMalformed = errors.New("malformed blob path")

const placeholderSuffix = "/.placeholder"

// Path is the decomposed form of a blob URL like
// https://account.blob.core.windows.net/container/owner/subdir/receipt.jpg.
type Path struct {
	Container    string
	ObjectPath   string
	OwnerID      string
	Subdirectory string
	// Placeholder is set for folder marker blobs. They carry no payload
	// and skip all further parsing.
	Placeholder bool
}

// Key identifies the blob in status tracking and logs.
func (p *Path) Key() string {
	return p.Container + "/" + p.ObjectPath
}

// Parse splits rawURL on "/" and takes the container from the fourth
// segment and the object path from everything after it. The object path
// must carry at least owner, subdirectory and file name segments.
// Placeholder markers short-circuit before any of that, whatever prefix
// they sit under.
func Parse(rawURL string) (*Path, error) {
	if strings.HasSuffix(rawURL, placeholderSuffix) {
		return &Path{Placeholder: true}, nil
	}

	segments := strings.Split(rawURL, "/")
	if len(segments) < 5 {
		return nil, fmt.Errorf("%w: %q has no container and object segments", ErrMalformed, rawURL)
	}

	p := &Path{
		Container:  segments[3],
		ObjectPath: strings.Join(segments[4:], "/"),
	}

	parts := strings.Split(p.ObjectPath, "/")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: object path %q is missing owner or subdirectory segments", ErrMalformed, p.ObjectPath)
	}
	p.OwnerID = parts[0]
	p.Subdirectory = parts[1]

	return p, nil
}
