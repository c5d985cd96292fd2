package mime

import "path/filepath"

type MIME = string

const (
	Plain MIME = "text/plain"
	HTML  MIME = "text/html"
	CSS   MIME = "text/css"
	JS    MIME = "application/javascript"
	PNG   MIME = "image/png"
	GIF   MIME = "image/gif"
	JPEG  MIME = "image/jpeg"
)

// Default is used for every file whose extension isn't known.
const Default = Plain

var Extension = map[string]MIME{
	".html": HTML,
	".css":  CSS,
	".js":   JS,
	".png":  PNG,
	".gif":  GIF,
	".jpg":  JPEG,
}

// ByFilename guesses the MIME by the filename's extension.
func ByFilename(name string) MIME {
	if mime, found := Extension[filepath.Ext(name)]; found {
		return mime
	}

	return Default
}
