package models

import (
	"io/fs"
	"os"
)

// AssetKind tells the handler how a resolved path should be answered
type AssetKind int

const (
	AssetFile AssetKind = iota
	AssetListing
	AssetRedirect
)

// Asset is the result of looking a request path up under the root directory
type Asset struct {
	Kind AssetKind

	// FullPath is the absolute filesystem path, always inside the root
	FullPath string
	Info     fs.FileInfo

	// File is set for AssetFile and owned by the caller
	File *os.File

	// Entries is set for AssetListing
	Entries []DirEntry
}

// DirEntry is one line of a directory listing
type DirEntry struct {
	Name      string
	IsDir     bool
	IsSymlink bool
}
