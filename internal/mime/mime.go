// Package mime provides a small pluggable extension-to-MIME-type mapper for
// multipart upload part headers, replacing the host-framework MIME guessing
// the original request library relied on.
package mime

import "strings"

var byExtension = map[string]string{
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".csv":  "text/csv",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".7z":   "application/x-7z-compressed",
	".rar":  "application/vnd.rar",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".bin":  "application/octet-stream",
	".exe":  "application/vnd.microsoft.portable-executable",
	".iso":  "application/x-iso9660-image",
}

// defaultType is returned for unknown or missing extensions.
const defaultType = "application/octet-stream"

// FromFilename derives a MIME type from filename's suffix, defaulting to
// application/octet-stream for unrecognized or absent extensions.
func FromFilename(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return defaultType
	}
	ext := strings.ToLower(filename[idx:])
	if t, ok := byExtension[ext]; ok {
		return t
	}
	return defaultType
}
