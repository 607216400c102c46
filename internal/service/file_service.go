package service

import (
	"errors"
	"fmt"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/samber/lo"
)

var (
	ErrForbidden = errors.New("path escapes the root directory")
	ErrNotFound  = errors.New("file not found")
)

// FileService maps request paths onto files below a fixed root directory
type FileService struct {
	root       string
	indexFiles []string
	listing    bool
}

// NewFileService creates a file service. root must already be absolute and
// free of symlinks.
func NewFileService(root string, indexFiles []string, listing bool) *FileService {
	return &FileService{
		root:       filepath.Clean(root),
		indexFiles: indexFiles,
		listing:    listing,
	}
}

// Root returns the served directory
func (s *FileService) Root() string {
	return s.root
}

func (s *FileService) contains(p string) bool {
	if p == s.root {
		return true
	}
	prefix := s.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// Resolve joins a decoded request path to the root and returns the cleaned
// absolute path. It returns ErrForbidden when the cleaned path, or the target
// of a symlink along it, lies outside the root. Nothing is opened.
func (s *FileService) Resolve(requestPath string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(requestPath))
	if !s.contains(full) {
		return "", ErrForbidden
	}

	target, err := filepath.EvalSymlinks(full)
	if err != nil {
		// missing paths are reported by the caller's Stat
		return full, nil
	}
	if !s.contains(target) {
		return "", ErrForbidden
	}
	return full, nil
}

// Lookup resolves requestPath and returns what should be served for it.
func (s *FileService) Lookup(requestPath string) (*models.Asset, error) {
	full, err := s.Resolve(requestPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, statError(err)
	}

	if info.IsDir() {
		if !strings.HasSuffix(requestPath, "/") {
			return &models.Asset{Kind: models.AssetRedirect, FullPath: full, Info: info}, nil
		}
		return s.lookupDir(requestPath, full, info)
	}

	if strings.HasSuffix(requestPath, "/") {
		return nil, ErrNotFound
	}
	return s.open(full, info)
}

func (s *FileService) lookupDir(requestPath, full string, info fs.FileInfo) (*models.Asset, error) {
	for _, name := range s.indexFiles {
		indexPath, err := s.Resolve(path.Join(requestPath, name))
		if err != nil {
			continue
		}
		indexInfo, err := os.Stat(indexPath)
		if err != nil || !indexInfo.Mode().IsRegular() {
			continue
		}
		return s.open(indexPath, indexInfo)
	}

	if !s.listing {
		return nil, ErrNotFound
	}

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return nil, statError(err)
	}

	entries := lo.Map(dirEntries, func(e fs.DirEntry, _ int) models.DirEntry {
		entry := models.DirEntry{
			Name:      e.Name(),
			IsDir:     e.IsDir(),
			IsSymlink: e.Type()&fs.ModeSymlink != 0,
		}
		if entry.IsSymlink {
			if target, err := os.Stat(filepath.Join(full, e.Name())); err == nil {
				entry.IsDir = target.IsDir()
			}
		}
		return entry
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return &models.Asset{
		Kind:     models.AssetListing,
		FullPath: full,
		Info:     info,
		Entries:  entries,
	}, nil
}

func (s *FileService) open(full string, info fs.FileInfo) (*models.Asset, error) {
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, statError(err)
	}

	return &models.Asset{
		Kind:     models.AssetFile,
		FullPath: full,
		Info:     info,
		File:     f,
	}, nil
}

func statError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return ErrNotFound
	default:
		return fmt.Errorf("failed to access file: %w", err)
	}
}
