package engine

import "strings"

// suffixes that are never worth scanning: binaries, media, archives, and
// minified or compiled artifacts.
var skipExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp", ".svg",
	".mp3", ".mp4", ".avi", ".mov", ".wav",
	".zip", ".gz", ".tar", ".tgz", ".rar", ".7z",
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".exe", ".dll", ".so", ".dylib", ".bin",
	".pyc", ".pyo", ".class", ".o", ".a", ".jar", ".wasm",
	".woff", ".woff2", ".ttf", ".eot",
	".min.js", ".min.css", ".map",
	".lock",
}

func isSkippedExtension(rel string) bool {
	lower := strings.ToLower(rel)
	for _, s := range skipExtensions {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
