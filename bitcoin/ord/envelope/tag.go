// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"github.com/btcsuite/btcd/txscript"
)

// Tag defines special tag for distinguishing envelope field type.
type Tag byte

const (
	// TagBody defines empty push which starts the body of the envelope.
	TagBody Tag = 0
	// TagContentType defines content-type tag of the envelope.
	// The value is the MIME type of the body.
	TagContentType Tag = 1
	// TagContentEncoding defines content-encoding tag of the envelope.
	// The value is the encoding of the body, e.g. gzip.
	TagContentEncoding Tag = 9
	// TagNop defines Nop tag of the envelope.
	TagNop Tag = 255
)

// IntoDataPush returns Tag as bytes array with OP_PUSH command.
func (t Tag) IntoDataPush() []byte {
	return []byte{txscript.OP_DATA_1, byte(t)}
}
