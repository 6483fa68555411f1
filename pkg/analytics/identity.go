package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IdentityProvider hands out the visitor and session identifiers attached to
// every page view.
type IdentityProvider interface {
	VisitorID() string
	SessionID() string
}

// StaticIdentity returns fixed identifiers.
type StaticIdentity struct {
	Visitor string
	Session string
}

func (s StaticIdentity) VisitorID() string { return s.Visitor }
func (s StaticIdentity) SessionID() string { return s.Session }

// FileIdentity keeps the visitor ID in a file so it survives restarts, and
// generates one session ID per process.
type FileIdentity struct {
	path string

	mu      sync.Mutex
	visitor string
	session string
}

// NewFileIdentity returns a provider persisting the visitor ID at path.
func NewFileIdentity(path string) *FileIdentity {
	return &FileIdentity{path: path}
}

// VisitorID returns the persisted visitor ID, creating it on first use. If the
// file cannot be written the ID is still kept for the life of the process.
func (f *FileIdentity) VisitorID() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visitor != "" {
		return f.visitor
	}

	if data, err := os.ReadFile(f.path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			f.visitor = id
			return id
		}
	}

	f.visitor = newID("v_")
	if err := f.persist(f.visitor); err != nil {
		logger.Debugf("[analytics] could not persist visitor id: %v", err)
	}
	return f.visitor
}

// SessionID returns the ID of the current process session.
func (f *FileIdentity) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session == "" {
		f.session = newID("s_")
	}
	return f.session
}

func (f *FileIdentity) persist(id string) error {
	if f.path == "" {
		return fmt.Errorf("no identity file configured")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(id+"\n"), 0o600)
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
