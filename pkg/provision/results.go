package provision

import (
	"github.com/olimci/lakeprep/pkg/digest"
)

const (
	MessageAllPresent  = "All files present"
	MessageProvisioned = "Downloaded or validated files"
)

// Request describes one provisioning run.
type Request struct {
	Files        []string                 // required file names, resolved in order
	Expected     map[string]digest.Digest // optional known-good digests by name
	ForceRefresh bool                     // clear the completion marker before starting
}

// Fingerprint identifies the file set a completion marker was written for.
func (r Request) Fingerprint() digest.Digest {
	parts := make([]string, 0, 2*len(r.Files))
	for _, name := range r.Files {
		parts = append(parts, name, r.Expected[name].String())
	}
	return digest.ForStrings(parts...)
}

type Result struct {
	Success  bool
	Message  string
	FastPath bool // satisfied by the completion marker without locking

	Downloaded []string // fetched by the downloader in this run
	Registered []string // already on disk, hashed and (re)recorded
	Accepted   []string // already on disk with a trusted manifest entry
}
