package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind selects the backend preview endpoint for a statement file.
type Kind string

const (
	KindCSV Kind = "csv"
	KindQFX Kind = "qfx"
)

// AcceptedExtensions lists the statement formats offered to the user.
var AcceptedExtensions = []string{".csv", ".qfx", ".ofx"}

// KindFor infers the preview kind from a file name. Only ".csv" is
// distinguished; every other name goes to the QFX/OFX endpoint.
func KindFor(name string) Kind {
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return KindCSV
	}
	return KindQFX
}

// Accepted reports whether name has one of the accepted statement extensions.
func Accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AcceptedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Statement describes a statement file on disk.
type Statement struct {
	Name string
	Path string
	Size int64
}

// Kind returns the preview kind for the statement.
func (s Statement) Kind() Kind {
	return KindFor(s.Name)
}

// StatementFromPath stats path and returns its Statement.
func StatementFromPath(path string) (Statement, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Statement{}, fmt.Errorf("stat statement: %w", err)
	}
	if info.IsDir() {
		return Statement{}, fmt.Errorf("statement %s is a directory", path)
	}
	return Statement{Name: info.Name(), Path: path, Size: info.Size()}, nil
}

// Scan returns statement files directly inside dir.
func Scan(dir string) ([]Statement, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []Statement
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !Accepted(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, Statement{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a confirmed statement into processedDir. An archived
// file with the same name is never replaced; the new one gets a numeric
// suffix instead ("bank-1.csv").
func MarkProcessed(st Statement, processedDir string) (string, error) {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	dst, err := freeName(processedDir, st.Name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(st.Path, dst); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", st.Name, err)
	}
	return dst, nil
}

// freeName returns a path in dir for name that does not exist yet.
func freeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}
