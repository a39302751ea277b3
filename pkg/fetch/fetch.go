// Package fetch provides the downloaders that bring a required data file from
// its source into the data directory.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/olimci/lakeprep/pkg/provision"
	"github.com/olimci/lakeprep/pkg/utils/fileutils"
)

const (
	DefaultAttempts = 4
	DefaultTimeout  = 30 * time.Minute
)

// New picks a downloader for source: http and https URLs are fetched over HTTP,
// file URLs and plain paths are copied from a local mirror.
func New(source string) (provision.Downloader, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("data source is empty")
	}

	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return NewHTTP(source), nil
		case "file":
			if u.Path == "" {
				return nil, fmt.Errorf("file source %q has no path", source)
			}
			return NewMirror(u.Path)
		case "":
		default:
			if len(u.Scheme) > 1 {
				return nil, fmt.Errorf("unsupported data source scheme %q", u.Scheme)
			}
			// single letter schemes are windows drive letters
		}
	}

	return NewMirror(source)
}

// Mirror copies required files out of a local directory.
type Mirror struct {
	Dir string
}

func NewMirror(dir string) (*Mirror, error) {
	abs, err := fileutils.AbsPath(dir)
	if err != nil {
		return nil, err
	}
	return &Mirror{Dir: abs}, nil
}

func (m *Mirror) Download(ctx context.Context, name, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutils.CopyFile(filepath.Join(m.Dir, name), dest)
}

func (m *Mirror) String() string {
	return m.Dir
}
