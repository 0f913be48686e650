package transmission

import (
	"encoding/json"
	"fmt"
)

// ResultSuccess is the result string of a successful RPC call.
const ResultSuccess = "success"

// Response is the envelope returned by the daemon.
type Response struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// Torrent holds the standard fields of a torrent-get result.
type Torrent struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Error         int     `json:"error"`
	ErrorString   string  `json:"errorString"`
	Eta           int64   `json:"eta"`
	IsStalled     bool    `json:"isStalled"`
	IsFinished    bool    `json:"isFinished"`
	QueuePosition int     `json:"queuePosition"`
	PercentDone   float64 `json:"percentDone"`
}

// AddedTorrent describes the torrent created or matched by torrent-add.
type AddedTorrent struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	HashString string `json:"hashString"`
	Duplicate  bool   `json:"-"`
}

// ParseResponse decodes a raw response body.
func ParseResponse(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decode rpc response: %w", err)
	}
	return resp, nil
}

// Torrents decodes the torrents list of a torrent-get response.
func (r Response) Torrents() ([]Torrent, error) {
	var args struct {
		Torrents []Torrent `json:"torrents"`
	}
	if len(r.Arguments) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(r.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decode torrents: %w", err)
	}
	return args.Torrents, nil
}

// Added decodes the torrent-add result. ok is false when the response names
// neither an added nor a duplicate torrent.
func (r Response) Added() (AddedTorrent, bool, error) {
	var args struct {
		Added     *AddedTorrent `json:"torrent-added"`
		Duplicate *AddedTorrent `json:"torrent-duplicate"`
	}
	if len(r.Arguments) == 0 {
		return AddedTorrent{}, false, nil
	}
	if err := json.Unmarshal(r.Arguments, &args); err != nil {
		return AddedTorrent{}, false, fmt.Errorf("decode torrent-add result: %w", err)
	}
	switch {
	case args.Added != nil:
		return *args.Added, true, nil
	case args.Duplicate != nil:
		dup := *args.Duplicate
		dup.Duplicate = true
		return dup, true, nil
	default:
		return AddedTorrent{}, false, nil
	}
}
