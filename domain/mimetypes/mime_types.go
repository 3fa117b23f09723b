package mimetypes

import (
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	OctetStream MIME = "application/octet-stream"
	TextPlain   MIME = "text/plain"
	TextHTML    MIME = "text/html"
	TextCSS     MIME = "text/css"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"
	ApplicationXML  MIME = "application/xml"
	ApplicationZIP  MIME = "application/zip"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"

	AudioMPEG MIME = "audio/mpeg"
	VideoMP4  MIME = "video/mp4"
)

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Detect sniffs the media type of an attachment from its content.
// Parameters such as charset are dropped.
func Detect(data []byte) MIME {
	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return OctetStream
	}
	return MIME(mt)
}

// Resolve returns the media type exposed for an attachment.
// The declared type is trusted unless verify is set.
func Resolve(declared string, data []byte, verify bool) string {
	if !verify {
		return declared
	}
	return string(Detect(data))
}
