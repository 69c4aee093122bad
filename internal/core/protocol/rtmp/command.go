// AMF0 command bodies for the client publish sequence. Ordering is
// load-bearing: connect, releaseStream, FCPublish, createStream, publish —
// servers reject media sent ahead of the sequence.

package rtmp

import (
	"github.com/arkavo-org/streampush/internal/core/protocol/amf0"
)

// flashVer identifies this publisher to ingest servers, in the format
// encoder tools use.
const flashVer = "FMLE/3.0 (compatible; streampush)"

// ConnectCommand builds the connect command body for an application.
// tcURL is the full rtmp://host[:port]/app endpoint string.
func ConnectCommand(app, tcURL string) ([]byte, error) {
	return amf0.EncodeBytes(
		"connect",
		float64(1),
		amf0.Object{
			{Name: "app", Value: app},
			{Name: "type", Value: "nonprivate"},
			{Name: "flashVer", Value: flashVer},
			{Name: "tcUrl", Value: tcURL},
		},
	)
}

// ReleaseStreamCommand builds the releaseStream command for a stream key.
func ReleaseStreamCommand(transactionID float64, streamKey string) ([]byte, error) {
	return amf0.EncodeBytes("releaseStream", transactionID, nil, streamKey)
}

// FCPublishCommand builds the FCPublish command for a stream key.
func FCPublishCommand(transactionID float64, streamKey string) ([]byte, error) {
	return amf0.EncodeBytes("FCPublish", transactionID, nil, streamKey)
}

// CreateStreamCommand builds the createStream command.
func CreateStreamCommand(transactionID float64) ([]byte, error) {
	return amf0.EncodeBytes("createStream", transactionID, nil)
}

// PublishCommand builds the publish command for a live stream.
func PublishCommand(transactionID float64, streamKey string) ([]byte, error) {
	return amf0.EncodeBytes("publish", transactionID, nil, streamKey, "live")
}

// FCUnpublishCommand builds the FCUnpublish command sent on teardown.
func FCUnpublishCommand(transactionID float64, streamKey string) ([]byte, error) {
	return amf0.EncodeBytes("FCUnpublish", transactionID, nil, streamKey)
}

// SetDataFrameCommand builds the @setDataFrame/onMetaData script data body
// announcing stream metadata to the server.
func SetDataFrameCommand(metadata amf0.Object) ([]byte, error) {
	return amf0.EncodeBytes("@setDataFrame", "onMetaData", metadata)
}
