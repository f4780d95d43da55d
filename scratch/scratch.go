package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Error reports a failed scratch-storage operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scratch %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Manager hands out isolated scratch directories for in-flight
// conversions. Every directory lives under a common root and is named
// by a fresh UUID, so concurrent conversions never collide.
type Manager struct {
	root string

	mu     sync.Mutex
	active map[string]struct{}
}

// NewManager returns a Manager rooted at dir. When dir is empty the
// system temp directory is used. The root is created on first use.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "papermill")
	}
	return &Manager{root: dir, active: make(map[string]struct{})}
}

// Acquire creates a fresh scratch directory and returns a handle to
// it. The caller must Close the handle when the conversion finishes,
// regardless of outcome.
func (m *Manager) Acquire() (*Handle, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &Error{Op: "create", Path: dir, Err: err}
	}
	m.mu.Lock()
	m.active[id] = struct{}{}
	m.mu.Unlock()
	return &Handle{manager: m, id: id, dir: dir}, nil
}

// Active reports how many scratch directories are currently held. It
// exists so tests can assert that conversions release what they take.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

// Handle is one conversion's private scratch directory.
type Handle struct {
	manager *Manager
	id      string
	dir     string

	closeOnce sync.Once
	closeErr  error
}

// Dir returns the scratch directory path.
func (h *Handle) Dir() string { return h.dir }

// Path joins name onto the scratch directory.
func (h *Handle) Path(name string) string {
	return filepath.Join(h.dir, name)
}

// WriteFile writes data to a file inside the scratch directory and
// returns its full path.
func (h *Handle) WriteFile(name string, data []byte) (string, error) {
	path := h.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", &Error{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// Close removes the scratch directory and everything in it. It always
// attempts removal, even after earlier failures, and is safe to call
// more than once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if err := os.RemoveAll(h.dir); err != nil {
			h.closeErr = &Error{Op: "remove", Path: h.dir, Err: err}
		}
		h.manager.release(h.id)
	})
	return h.closeErr
}
