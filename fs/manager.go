package fs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ScriptExt is the extension of saved Blender scripts.
const ScriptExt = ".py"

var ErrNoScripts = errors.New("no scripts to export")

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// NewOutputFileSystem roots all paths at dir on disk.
func NewOutputFileSystem(dir string) *FileSystem {
	return &FileSystem{
		Fs: afero.NewBasePathFs(afero.NewOsFs(), dir),
	}
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content
func (fs *FileSystem) WriteFile(path string, content string) error {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	err := afero.WriteFile(fs.Fs, path, []byte(content), 0644)
	if err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the content of path.
func (fs *FileSystem) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(data), nil
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SaveScript writes code as a Python script and returns the path it used.
// name is reduced to a safe file name and gets the .py extension if missing.
func (fs *FileSystem) SaveScript(name, code string) (string, error) {
	path := ScriptName(name)
	if err := fs.WriteFile(path, code); err != nil {
		return "", err
	}
	return path, nil
}

// ListScripts returns the saved scripts in lexical order.
func (fs *FileSystem) ListScripts() ([]string, error) {
	var scripts []string
	err := afero.Walk(fs.Fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ScriptExt) {
			scripts = append(scripts, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking file system: %w", err)
	}
	sort.Strings(scripts)
	return scripts, nil
}

// ExportZip writes every saved script into a new archive at path on dst.
// Nothing is left at path when the export fails.
func (fs *FileSystem) ExportZip(dst *FileSystem, path string) error {
	scripts, err := fs.ListScripts()
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return ErrNoScripts
	}

	f, err := dst.Fs.Create(path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	err = fs.WriteToZip(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("error closing %s: %w", path, cerr)
	}
	if err != nil {
		_ = dst.Fs.Remove(path)
		return err
	}
	return nil
}

// WriteToZip writes every saved script into a zip archive on w.
func (fs *FileSystem) WriteToZip(w io.Writer) error {
	scripts, err := fs.ListScripts()
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return ErrNoScripts
	}

	zipWriter := zip.NewWriter(w)
	for _, path := range scripts {
		writer, err := zipWriter.Create(path)
		if err != nil {
			return fmt.Errorf("error creating zip entry for file %s: %w", path, err)
		}

		if err := fs.copyTo(writer, path); err != nil {
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("error closing zip writer: %w", err)
	}
	return nil
}

func (fs *FileSystem) copyTo(w io.Writer, path string) error {
	file, err := fs.Fs.Open(path)
	if err != nil {
		return fmt.Errorf("error opening file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("error writing file %s to zip: %w", path, err)
	}
	return nil
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// ScriptName turns a free-form name into a script file name.
func ScriptName(name string) string {
	name = strings.TrimSuffix(filepath.Base(filepath.ToSlash(name)), ScriptExt)
	formatted := invalidNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	formatted = strings.Trim(formatted, "-_")

	// If the name is empty after formatting, use a default name
	if formatted == "" {
		formatted = "blender_script"
	}
	return formatted + ScriptExt
}
