package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const imageVersion = 1

type imageFile struct {
	Name     string    `cbor:"1,keyasint"`
	Data     []byte    `cbor:"2,keyasint"`
	Created  time.Time `cbor:"3,keyasint"`
	Modified time.Time `cbor:"4,keyasint"`
}

type diskImage struct {
	Version int         `cbor:"1,keyasint"`
	Files   []imageFile `cbor:"2,keyasint"`
}

var imageEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("vfs: cbor enc mode: %v", err))
	}
	imageEncMode = em
}

// SaveImage writes the whole disk to w as a single CBOR document.
func (vd *VirtualDisk) SaveImage(w io.Writer) error {
	vd.mu.RLock()
	img := diskImage{Version: imageVersion, Files: make([]imageFile, 0, len(vd.Files))}
	for name, entry := range vd.Files {
		img.Files = append(img.Files, imageFile{
			Name:     name,
			Data:     entry.Data,
			Created:  entry.Created,
			Modified: entry.Modified,
		})
	}
	vd.mu.RUnlock()

	sort.Slice(img.Files, func(i, j int) bool { return img.Files[i].Name < img.Files[j].Name })
	return imageEncMode.NewEncoder(w).Encode(img)
}

// LoadImage replaces the disk contents with an image written by SaveImage.
// The disk is left untouched if the image is malformed.
func (vd *VirtualDisk) LoadImage(r io.Reader) error {
	var img diskImage
	if err := cbor.NewDecoder(r).Decode(&img); err != nil {
		return fmt.Errorf("decode disk image: %w", err)
	}
	if img.Version != imageVersion {
		return fmt.Errorf("unsupported disk image version %d", img.Version)
	}
	if len(img.Files) > MaxFiles {
		return fmt.Errorf("disk image holds %d files: %w", len(img.Files), ErrDiskFull)
	}

	files := make(map[string]*FileEntry, len(img.Files))
	for _, f := range img.Files {
		if !ValidName(f.Name) {
			return fmt.Errorf("disk image entry %q: %w", f.Name, ErrInvalidFilename)
		}
		if len(f.Data) > MaxFileSize {
			return fmt.Errorf("disk image entry %q: %w", f.Name, ErrFileTooLarge)
		}
		data := f.Data
		if data == nil {
			data = []byte{}
		}
		files[f.Name] = &FileEntry{Data: data, Created: f.Created, Modified: f.Modified}
	}

	vd.mu.Lock()
	defer vd.mu.Unlock()
	for name := range vd.Files {
		if _, kept := files[name]; !kept {
			vd.DirtyFiles[name] = true
		}
	}
	for name := range files {
		vd.DirtyFiles[name] = true
	}
	vd.Files = files
	vd.Dirty = true
	return nil
}

// LoadImageFile loads the image stored at the host path. A missing file
// leaves the disk as it is.
func (vd *VirtualDisk) LoadImageFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	return vd.LoadImage(f)
}

// SaveImageFile writes the image to the host path, replacing the file.
func (vd *VirtualDisk) SaveImageFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := vd.SaveImage(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
