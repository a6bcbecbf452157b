package imageopt

import "strings"

// ExtensionForMIME returns the file extension used for an output type.
func ExtensionForMIME(mimeType string) string {
	switch mimeType {
	case MIMEWebP:
		return "webp"
	case MIMEJPEG:
		return "jpg"
	default:
		return "img"
	}
}

// ReplaceExtension swaps the extension of name, or appends one when the name
// has none. A leading dot (".env") is not treated as an extension.
func ReplaceExtension(name, ext string) string {
	trimmed := strings.TrimSpace(name)
	dot := strings.LastIndex(trimmed, ".")
	if dot <= 0 {
		return trimmed + "." + ext
	}
	return trimmed[:dot] + "." + ext
}
