package transmission

import (
	"fmt"
	"strings"
)

// Field is a torrent attribute name understood by torrent-get.
type Field string

const (
	FieldID                      Field = "id"
	FieldError                   Field = "error"
	FieldErrorString             Field = "errorString"
	FieldEta                     Field = "eta"
	FieldIsFinished              Field = "isFinished"
	FieldIsStalled               Field = "isStalled"
	FieldLeftUntilDone           Field = "leftUntilDone"
	FieldMetadataPercentComplete Field = "metadataPercentComplete"
	FieldPeersConnected          Field = "peersConnected"
	FieldPeersGettingFromUs      Field = "peersGettingFromUs"
	FieldPeersSendingToUs        Field = "peersSendingToUs"
	FieldPercentDone             Field = "percentDone"
	FieldQueuePosition           Field = "queuePosition"
	FieldRateDownload            Field = "rateDownload"
	FieldRateUpload              Field = "rateUpload"
	FieldRecheckProgress         Field = "recheckProgress"
	FieldSeedRatioMode           Field = "seedRatioMode"
	FieldSeedRatioLimit          Field = "seedRatioLimit"
	FieldSizeWhenDone            Field = "sizeWhenDone"
	FieldStatus                  Field = "status"
	FieldTrackers                Field = "trackers"
	FieldDownloadDir             Field = "downloadDir"
	FieldUploadedEver            Field = "uploadedEver"
	FieldUploadRatio             Field = "uploadRatio"
	FieldWebseedsSendingToUs     Field = "webseedsSendingToUs"
)

// StandardFields is the field list attached to id-based actions.
var StandardFields = []Field{
	FieldID,
	FieldError,
	FieldErrorString,
	FieldEta,
	FieldIsStalled,
	FieldIsFinished,
	FieldQueuePosition,
	FieldPercentDone,
}

// Arguments is the wire argument object. Unset members are omitted.
type Arguments struct {
	IDs      []string `json:"ids,omitempty"`
	Fields   []Field  `json:"fields,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Metainfo string   `json:"metainfo,omitempty"`
}

// Request is the JSON body posted to the RPC endpoint.
type Request struct {
	Method    string    `json:"method"`
	Arguments Arguments `json:"arguments"`
}

// Action is an engine operation that can be rendered as a Request.
type Action interface {
	Request() Request
}

func standard(ids []string) Arguments {
	args := Arguments{Fields: append([]Field(nil), StandardFields...)}
	if len(ids) > 0 {
		args.IDs = append([]string(nil), ids...)
	}
	return args
}

// Start queues torrents for download. Empty IDs means all torrents.
type Start struct{ IDs []string }

func (a Start) Request() Request {
	return Request{Method: "torrent-start", Arguments: standard(a.IDs)}
}

// StartNow starts torrents immediately, bypassing the queue.
type StartNow struct{ IDs []string }

func (a StartNow) Request() Request {
	return Request{Method: "torrent-start-now", Arguments: standard(a.IDs)}
}

// Stop pauses torrents.
type Stop struct{ IDs []string }

func (a Stop) Request() Request {
	return Request{Method: "torrent-stop", Arguments: standard(a.IDs)}
}

// Verify rechecks local data.
type Verify struct{ IDs []string }

func (a Verify) Request() Request {
	return Request{Method: "torrent-verify", Arguments: standard(a.IDs)}
}

// Reannounce asks trackers for more peers.
type Reannounce struct{ IDs []string }

func (a Reannounce) Request() Request {
	return Request{Method: "torrent-reannounce", Arguments: standard(a.IDs)}
}

// Get fetches the standard fields.
type Get struct{ IDs []string }

func (a Get) Request() Request {
	return Request{Method: "torrent-get", Arguments: standard(a.IDs)}
}

// Set updates torrents using the standard field list.
type Set struct{ IDs []string }

func (a Set) Request() Request {
	return Request{Method: "torrent-set", Arguments: standard(a.IDs)}
}

// Add adds a torrent by filename (a URL or path readable by the daemon) or by
// base64 encoded metainfo. Exactly one should be set; Filename wins.
type Add struct {
	Filename string
	Metainfo string
}

func (a Add) Request() Request {
	if a.Filename != "" {
		return Request{Method: "torrent-add", Arguments: Arguments{Filename: a.Filename}}
	}
	return Request{Method: "torrent-add", Arguments: Arguments{Metainfo: a.Metainfo}}
}

// ParseAction maps a command name such as "start-now" to an id-based Action.
func ParseAction(name string, ids []string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "start":
		return Start{IDs: ids}, nil
	case "start-now":
		return StartNow{IDs: ids}, nil
	case "stop":
		return Stop{IDs: ids}, nil
	case "verify":
		return Verify{IDs: ids}, nil
	case "reannounce":
		return Reannounce{IDs: ids}, nil
	case "get":
		return Get{IDs: ids}, nil
	case "set":
		return Set{IDs: ids}, nil
	default:
		return nil, fmt.Errorf("unknown torrent action %q", name)
	}
}
