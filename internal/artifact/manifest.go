package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/o1/pkg/models"
)

// ManifestFile is the manifest's name inside a run directory.
const ManifestFile = "manifest.yaml"

// Entry describes one persisted artifact.
type Entry struct {
	Pass      int                 `yaml:"pass"`
	Stage     models.Stage        `yaml:"stage"`
	Kind      models.ArtifactKind `yaml:"kind"`
	Step      int                 `yaml:"step,omitempty"`
	Name      string              `yaml:"name"`
	Location  string              `yaml:"location"`
	CreatedAt time.Time           `yaml:"created_at"`
}

// Manifest lists every artifact of a run. Safe for concurrent use.
type Manifest struct {
	mu      sync.Mutex
	Task    string    `yaml:"task"`
	Started time.Time `yaml:"started"`
	Entries []Entry   `yaml:"artifacts"`
}

// NewManifest starts a manifest for task.
func NewManifest(task string, started time.Time) *Manifest {
	return &Manifest{Task: task, Started: started}
}

// Add appends an entry.
func (m *Manifest) Add(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

// WriteTo writes the manifest into dir, replacing any previous copy.
func (m *Manifest) WriteTo(dir string) (string, error) {
	m.mu.Lock()
	data, err := yaml.Marshal(m)
	m.mu.Unlock()
	path := filepath.Join(dir, ManifestFile)
	if err != nil {
		return "", &PersistenceError{Name: ManifestFile, Path: path, Err: fmt.Errorf("marshal manifest: %w", err)}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &PersistenceError{Name: ManifestFile, Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", &PersistenceError{Name: ManifestFile, Path: path, Err: err}
	}
	return path, nil
}

// LoadManifest reads the manifest written in dir.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
