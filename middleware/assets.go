package middleware

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// staticAssets are the files referenced by the layout, relative to static/
var staticAssets = []string{
	"css/app.css",
	"js/app.js",
	"js/webcam.js",
	"images/favicon.svg",
}

var (
	assetVersions     = map[string]string{}
	assetVersionsMu   sync.RWMutex
	assetVersionsOnce sync.Once
)

// InitAssetVersions computes file hashes for cache busting at startup
func InitAssetVersions() {
	assetVersionsOnce.Do(func() {
		loadAssetVersions("static")
	})
}

func loadAssetVersions(root string) {
	versions := make(map[string]string, len(staticAssets))
	for _, name := range staticAssets {
		if v := computeFileHash(filepath.Join(root, name)); v != "" {
			versions[name] = v
		}
	}

	assetVersionsMu.Lock()
	assetVersions = versions
	assetVersionsMu.Unlock()
	log.Printf("[INFO] Asset versions initialized: %d of %d files", len(versions), len(staticAssets))
}

// computeFileHash returns the first 8 characters of the MD5 hash of a file
func computeFileHash(path string) string {
	file, err := os.Open(path)
	if err != nil {
		log.Printf("[WARNING] Failed to open file for hashing %s: %v", path, err)
		return ""
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		log.Printf("[WARNING] Failed to hash file %s: %v", path, err)
		return ""
	}
	return hex.EncodeToString(hash.Sum(nil))[:8]
}

// AssetVersion returns the hash of a static file, "1" when unknown
func AssetVersion(name string) string {
	assetVersionsMu.RLock()
	defer assetVersionsMu.RUnlock()
	if v, ok := assetVersions[name]; ok {
		return v
	}
	return "1"
}

// AssetURL returns the cache-busted URL of a static file
func AssetURL(name string) string {
	return "/static/" + name + "?v=" + AssetVersion(name)
}
