package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"
)

const (
	// MaxFiles is the number of file slots on the disk.
	MaxFiles = 31
	// MaxFileSize is the per-file capacity in bytes.
	MaxFileSize = 4096
	// MaxNameLen is the longest accepted filename.
	MaxNameLen = 31
)

// validFilename is the regex for sanitizing filenames.
var validFilename = regexp.MustCompile(`^\.?[a-zA-Z0-9_][a-zA-Z0-9_\-]*(\.[a-zA-Z0-9]{1,4})?$`)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileExists      = errors.New("file already exists")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrDiskFull        = errors.New("no free file slots")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
)

// ValidName reports whether name is an acceptable disk filename.
func ValidName(name string) bool {
	return len(name) <= MaxNameLen && validFilename.MatchString(name)
}

type FileEntry struct {
	Data     []byte
	Created  time.Time
	Modified time.Time
}

// VirtualDisk is the flat in-memory content store that holds sources and
// binary artifacts.
type VirtualDisk struct {
	mu         sync.RWMutex
	Files      map[string]*FileEntry
	DirtyFiles map[string]bool
	Dirty      bool
}

// NewVirtualDisk creates a new instance of VirtualDisk.
func NewVirtualDisk() *VirtualDisk {
	return &VirtualDisk{
		Files:      make(map[string]*FileEntry),
		DirtyFiles: make(map[string]bool),
	}
}

// File is an open handle on a disk entry. It refers to the entry by name;
// once the entry is deleted, Read and Write fail with ErrFileNotFound.
type File struct {
	disk *VirtualDisk
	name string
}

func (f *File) Name() string { return f.name }

// Read returns a copy of at most max bytes from the start of the file.
func (f *File) Read(max int) ([]byte, error) {
	f.disk.mu.RLock()
	defer f.disk.mu.RUnlock()

	entry, ok := f.disk.Files[f.name]
	if !ok {
		return nil, ErrFileNotFound
	}
	n := len(entry.Data)
	if max < n {
		n = max
	}
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	copy(out, entry.Data)
	return out, nil
}

// Write replaces the file contents with p.
func (f *File) Write(p []byte) (int, error) {
	f.disk.mu.Lock()
	defer f.disk.mu.Unlock()

	entry, ok := f.disk.Files[f.name]
	if !ok {
		return 0, ErrFileNotFound
	}
	if len(p) > MaxFileSize {
		return 0, ErrFileTooLarge
	}
	f.disk.store(f.name, entry, p)
	return len(p), nil
}

func (f *File) Size() int {
	f.disk.mu.RLock()
	defer f.disk.mu.RUnlock()
	if entry, ok := f.disk.Files[f.name]; ok {
		return len(entry.Data)
	}
	return 0
}

// store deep copies data into entry. Callers hold the write lock.
func (vd *VirtualDisk) store(name string, entry *FileEntry, data []byte) {
	newData := make([]byte, len(data))
	copy(newData, data)
	entry.Data = newData
	entry.Modified = time.Now()
	vd.DirtyFiles[name] = true
	vd.Dirty = true
}

// Open returns a handle on an existing file.
func (vd *VirtualDisk) Open(filename string) (*File, error) {
	vd.mu.RLock()
	defer vd.mu.RUnlock()

	if !ValidName(filename) {
		return nil, ErrInvalidFilename
	}
	if _, ok := vd.Files[filename]; !ok {
		return nil, ErrFileNotFound
	}
	return &File{disk: vd, name: filename}, nil
}

// Create makes a new empty file. It fails if the name is taken.
func (vd *VirtualDisk) Create(filename string) (*File, error) {
	vd.mu.Lock()
	defer vd.mu.Unlock()

	if !ValidName(filename) {
		return nil, ErrInvalidFilename
	}
	if _, ok := vd.Files[filename]; ok {
		return nil, ErrFileExists
	}
	if len(vd.Files) >= MaxFiles {
		return nil, ErrDiskFull
	}

	now := time.Now()
	vd.Files[filename] = &FileEntry{Data: []byte{}, Created: now, Modified: now}
	vd.DirtyFiles[filename] = true
	vd.Dirty = true
	return &File{disk: vd, name: filename}, nil
}

// Write writes data to a file on the virtual disk, creating it if needed.
// The data is deep copied.
func (vd *VirtualDisk) Write(filename string, data []byte) error {
	vd.mu.Lock()
	defer vd.mu.Unlock()

	if !ValidName(filename) {
		return ErrInvalidFilename
	}
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}

	entry, ok := vd.Files[filename]
	if !ok {
		if len(vd.Files) >= MaxFiles {
			return ErrDiskFull
		}
		entry = &FileEntry{Created: time.Now()}
		vd.Files[filename] = entry
	}
	vd.store(filename, entry, data)
	return nil
}

// Read returns the contents of a file. The slice must not be modified.
func (vd *VirtualDisk) Read(filename string) ([]byte, error) {
	vd.mu.RLock()
	defer vd.mu.RUnlock()

	if !ValidName(filename) {
		return nil, ErrInvalidFilename
	}

	entry, ok := vd.Files[filename]
	if !ok {
		return nil, ErrFileNotFound
	}

	return entry.Data, nil
}

// Size returns the size of a file in bytes.
func (vd *VirtualDisk) Size(filename string) (int, error) {
	vd.mu.RLock()
	defer vd.mu.RUnlock()

	if !ValidName(filename) {
		return 0, ErrInvalidFilename
	}

	entry, ok := vd.Files[filename]
	if !ok {
		return 0, ErrFileNotFound
	}

	return len(entry.Data), nil
}

// Delete removes a file from the virtual disk.
func (vd *VirtualDisk) Delete(filename string) error {
	vd.mu.Lock()
	defer vd.mu.Unlock()

	if !ValidName(filename) {
		return ErrInvalidFilename
	}

	if _, ok := vd.Files[filename]; !ok {
		return ErrFileNotFound
	}
	delete(vd.Files, filename)

	// Mark as dirty so it gets removed from persistence too (if it was persisted)
	vd.DirtyFiles[filename] = true
	vd.Dirty = true

	return nil
}

// List returns a sorted list of all filenames.
func (vd *VirtualDisk) List() []string {
	vd.mu.RLock()
	defer vd.mu.RUnlock()

	keys := make([]string, 0, len(vd.Files))
	for k := range vd.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FreeSlots returns how many more files can be created.
func (vd *VirtualDisk) FreeSlots() int {
	vd.mu.RLock()
	defer vd.mu.RUnlock()
	return MaxFiles - len(vd.Files)
}

// GetMeta returns the creation and modification time of a file.
func (vd *VirtualDisk) GetMeta(filename string) (time.Time, time.Time, error) {
	vd.mu.RLock()
	defer vd.mu.RUnlock()

	if !ValidName(filename) {
		return time.Time{}, time.Time{}, ErrInvalidFilename
	}

	entry, ok := vd.Files[filename]
	if !ok {
		return time.Time{}, time.Time{}, ErrFileNotFound
	}

	return entry.Created, entry.Modified, nil
}

// IsDirty reports whether anything changed since the last PersistTo.
func (vd *VirtualDisk) IsDirty() bool {
	vd.mu.RLock()
	defer vd.mu.RUnlock()
	return vd.Dirty
}

// LoadFrom populates the VirtualDisk from files in the given host directory.
// Files with invalid names, oversized files and files beyond the slot limit
// are skipped silently. Returns nil if the directory does not exist (first run).
func (vd *VirtualDisk) LoadFrom(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	vd.mu.Lock()
	defer vd.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !ValidName(name) {
			continue
		}
		if _, exists := vd.Files[name]; !exists && len(vd.Files) >= MaxFiles {
			continue
		}

		fullPath := filepath.Join(path, name)
		raw, err := os.ReadFile(fullPath)
		if err != nil || len(raw) > MaxFileSize {
			continue
		}

		fileEntry := &FileEntry{
			Data:     raw,
			Modified: time.Now(),
			Created:  time.Now(),
		}
		if info, err := entry.Info(); err == nil {
			fileEntry.Modified = info.ModTime()
			fileEntry.Created = info.ModTime()
		}

		vd.Files[name] = fileEntry
	}

	return nil
}

// PersistTo writes all dirty files in the VirtualDisk to the given host directory.
// The directory is created if it does not exist.
// Returns the first write error encountered.
func (vd *VirtualDisk) PersistTo(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}

	// Snapshot the dirty files under the lock, then release it before doing I/O.
	vd.mu.Lock()
	snapshot := make(map[string]*FileEntry)
	deletedFiles := make([]string, 0)

	for name := range vd.DirtyFiles {
		if entry, ok := vd.Files[name]; ok {
			newData := make([]byte, len(entry.Data))
			copy(newData, entry.Data)
			snapshot[name] = &FileEntry{
				Data:     newData,
				Created:  entry.Created,
				Modified: entry.Modified,
			}
		} else {
			deletedFiles = append(deletedFiles, name)
		}
		delete(vd.DirtyFiles, name)
	}
	vd.Dirty = false
	vd.mu.Unlock()

	var firstErr error

	for _, name := range deletedFiles {
		err := os.Remove(filepath.Join(path, name))
		if err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for name, entry := range snapshot {
		if err := os.WriteFile(filepath.Join(path, name), entry.Data, 0644); err != nil {
			// Restore dirty flag on failure
			vd.mu.Lock()
			vd.DirtyFiles[name] = true
			vd.Dirty = true
			vd.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
		} else {
			_ = os.Chtimes(filepath.Join(path, name), time.Now(), entry.Modified)
		}
	}

	return firstErr
}
