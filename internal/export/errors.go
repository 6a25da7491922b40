// Package export orchestrates the offline pipeline: one synchronous loop
// decoding, directing, compositing, post-processing and rasterizing every
// frame in order, feeding the encoder's stdin.
package export

import "fmt"

// Kind classifies a pipeline failure; the shell maps kinds to process exit
// codes.
type Kind int

const (
	KindConfig Kind = iota
	KindFileNotFound
	KindUnsupportedFormat
	KindInvalidDimensions
	KindAudioDecode
	KindVideoDecode
	KindEncoderPipe
)

var kindNames = map[Kind]string{
	KindConfig:            "config",
	KindFileNotFound:      "file_not_found",
	KindUnsupportedFormat: "unsupported_format",
	KindInvalidDimensions: "invalid_dimensions",
	KindAudioDecode:       "audio_decode",
	KindVideoDecode:       "video_decode",
	KindEncoderPipe:       "encoder_pipe",
}

func (k Kind) String() string { return kindNames[k] }

// Error carries the failure taxonomy alongside the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain; ok is false for
// errors the taxonomy does not cover.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}
