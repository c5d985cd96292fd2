// Package resolve maps request URIs onto the document root.
package resolve

import (
	"path"
	"strings"

	"github.com/indigo-web/liso/config"
	"github.com/indigo-web/liso/http"
	"github.com/indigo-web/liso/internal/uridecode"
)

type Resolver struct {
	root, marker, index string
	buff                []byte
}

func New(cfg *config.Config) *Resolver {
	return &Resolver{
		root:   strings.TrimRight(cfg.FS.Root, "/"),
		marker: cfg.FS.DynamicMarker,
		index:  cfg.HTTP.DefaultDocument,
		buff:   make([]byte, 0, 256),
	}
}

// Resolve fills the request's Path, Query and Static fields from its URI.
//
// A URI whose decoded path contains the dynamic marker is dynamic: everything after
// the first '?' is the query, and the part before it is joined with the root.
// Otherwise the query is dropped, the path is cleaned so it can't climb above the
// root, and URIs ending with a slash get the default document appended.
func (r *Resolver) Resolve(req *http.Request) error {
	uri, query, hasQuery := strings.Cut(req.URI, "?")
	decoded, err := r.decode(uri)
	if err != nil {
		return err
	}

	if len(r.marker) > 0 && strings.Contains(decoded, r.marker) {
		req.Static = false
		if hasQuery {
			req.Query = query
		}

		req.Path = r.root + path.Clean("/"+decoded)
		return nil
	}

	req.Static = true

	isDir := strings.HasSuffix(decoded, "/")
	cleaned := path.Clean("/" + decoded)
	if isDir {
		if cleaned != "/" {
			cleaned += "/"
		}

		cleaned += r.index
	}

	req.Path = r.root + cleaned
	return nil
}

func (r *Resolver) decode(uri string) (string, error) {
	// the result may point into r.buff, but it's always concatenated with the root
	// right away, so never outlives the call
	return uridecode.Decode(uri, r.buff)
}
