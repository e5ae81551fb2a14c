package gitrepo

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	repositoryMarkerDirectoryConstant = ".git"
	defaultRootCacheSizeConstant      = 1024
)

// RepositoryRootLocator finds the nearest ancestor directory containing a
// .git directory. Lookups are memoized per directory and safe for concurrent use.
type RepositoryRootLocator struct {
	cache *lru.Cache[string, string]
}

// NewRepositoryRootLocator constructs a locator caching up to cacheSize directories.
// A non-positive size selects the default.
func NewRepositoryRootLocator(cacheSize int) (*RepositoryRootLocator, error) {
	if cacheSize <= 0 {
		cacheSize = defaultRootCacheSizeConstant
	}
	cache, cacheError := lru.New[string, string](cacheSize)
	if cacheError != nil {
		return nil, cacheError
	}
	return &RepositoryRootLocator{cache: cache}, nil
}

// Locate returns the repository root owning directory, or false when no
// ancestor up to the filesystem root carries the marker.
func (locator *RepositoryRootLocator) Locate(directory string) (string, bool) {
	absoluteDirectory, absoluteError := filepath.Abs(directory)
	if absoluteError != nil {
		return "", false
	}

	visited := make([]string, 0, 8)
	repositoryRoot := ""
	currentDirectory := absoluteDirectory
	for {
		if cachedRoot, cached := locator.cache.Get(currentDirectory); cached {
			repositoryRoot = cachedRoot
			break
		}
		visited = append(visited, currentDirectory)

		markerInfo, statError := os.Stat(filepath.Join(currentDirectory, repositoryMarkerDirectoryConstant))
		if statError == nil && markerInfo.IsDir() {
			repositoryRoot = currentDirectory
			break
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}

	for _, visitedDirectory := range visited {
		locator.cache.Add(visitedDirectory, repositoryRoot)
	}
	return repositoryRoot, len(repositoryRoot) > 0
}

// LocateFile returns the repository root owning the directory containing filePath.
func (locator *RepositoryRootLocator) LocateFile(filePath string) (string, bool) {
	return locator.Locate(filepath.Dir(filePath))
}
