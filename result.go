package watermark

import (
	"errors"
	"fmt"

	"github.com/yyyoichi/watermark_lsb/mark"
)

var (
	ErrUnsupportedType  = errors.New("Unsupported file type")
	ErrDecodeFailure    = errors.New("could not decode media")
	ErrTruncatedPayload = errors.New("payload exceeds the media capacity")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidOption    = errors.New("invalid option")
	ErrNotFound         = mark.ErrNotFound
	ErrLayerCollision   = mark.ErrLayerCollision
	ErrEmptyPayload     = mark.ErrEmptyPayload
	ErrTooLong          = mark.ErrTooLong
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Unknown is reported for a dual-layer slot that holds no terminated payload.
const Unknown = "unknown"

// Result is the outcome of a boundary operation. It marshals to the JSON
// shape {status, message, filePath, media_id, original_creator,
// leaked_by_recipient}; fields that do not apply are omitted.
type Result struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	MediaID  string `json:"media_id,omitempty"`
	*Trace
	// Err holds the failure for errors.Is; nil on success.
	Err error `json:"-"`
}

// Trace is the pair of identifiers recovered from a dual-layer medium.
type Trace struct {
	OriginalCreator   string `json:"original_creator"`
	LeakedByRecipient string `json:"leaked_by_recipient"`
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func (r Result) String() string {
	switch {
	case !r.OK():
		return fmt.Sprintf("error: %s", r.Message)
	case r.Trace != nil:
		return fmt.Sprintf("original_creator=%s leaked_by_recipient=%s", r.OriginalCreator, r.LeakedByRecipient)
	case r.FilePath != "":
		return r.FilePath
	}
	return r.MediaID
}

func failed(err error) Result {
	return Result{Status: StatusError, Message: err.Error(), Err: err}
}
