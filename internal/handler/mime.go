package handler

import (
	"mime"
	"path/filepath"
)

const defaultContentType = "application/octet-stream"

// Types the platform tables often miss or get wrong for WebGL assets.
var extraTypes = map[string]string{
	".js":   "text/javascript; charset=utf-8",
	".mjs":  "text/javascript; charset=utf-8",
	".json": "application/json",
	".wasm": "application/wasm",
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".hdr":  "image/vnd.radiance",
}

func init() {
	for ext, typ := range extraTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			panic(err)
		}
	}
}

func contentType(name string) string {
	if typ := mime.TypeByExtension(filepath.Ext(name)); typ != "" {
		return typ
	}
	return defaultContentType
}
