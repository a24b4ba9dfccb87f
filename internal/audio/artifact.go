package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MediaTypeMP3 is the media type of every assembled artifact.
const MediaTypeMP3 = "audio/mpeg"

const (
	dataURIScheme    = "data:"
	dataURIBase64Sep = ";base64,"
)

// Errors returned when decoding a stored artifact.
var (
	// ErrNotDataURI indicates the value does not start with "data:".
	ErrNotDataURI = errors.New("value is not a data URI")

	// ErrNotBase64 indicates the data URI is not base64 encoded.
	ErrNotBase64 = errors.New("data URI is not base64 encoded")
)

// Artifact is a binary audio payload tagged with its media type.
type Artifact struct {
	Data      []byte
	MediaType string
}

// Size returns the payload length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

// IsEmpty reports whether the artifact carries no audio.
func (a Artifact) IsEmpty() bool {
	return len(a.Data) == 0
}

// DataURI encodes the artifact as "data:{media type};base64,{payload}" so it
// can live in a string-only store. An empty media type is written as MP3.
func (a Artifact) DataURI() string {
	mediaType := a.MediaType
	if mediaType == "" {
		mediaType = MediaTypeMP3
	}

	var b strings.Builder
	b.Grow(len(dataURIScheme) + len(mediaType) + len(dataURIBase64Sep) + base64.StdEncoding.EncodedLen(len(a.Data)))
	b.WriteString(dataURIScheme)
	b.WriteString(mediaType)
	b.WriteString(dataURIBase64Sep)
	b.WriteString(base64.StdEncoding.EncodeToString(a.Data))
	return b.String()
}

// ParseDataURI decodes a value produced by Artifact.DataURI.
func ParseDataURI(s string) (Artifact, error) {
	if !strings.HasPrefix(s, dataURIScheme) {
		return Artifact{}, ErrNotDataURI
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(s, dataURIScheme), dataURIBase64Sep)
	if !ok {
		return Artifact{}, ErrNotBase64
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("decode data URI payload: %w", err)
	}

	return Artifact{Data: data, MediaType: header}, nil
}
