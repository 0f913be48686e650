package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Item is the part of a feed entry the poller uses.
type Item struct {
	Title string
	Link  string
}

// Decoder turns a feed document into items in document order.
type Decoder interface {
	Decode(r io.Reader) ([]Item, error)
}

// GofeedDecoder decodes RSS and Atom documents.
type GofeedDecoder struct {
	parser *gofeed.Parser
}

// NewGofeedDecoder returns a decoder backed by gofeed's universal parser.
func NewGofeedDecoder() *GofeedDecoder {
	return &GofeedDecoder{parser: gofeed.NewParser()}
}

// Decode implements Decoder.
func (d *GofeedDecoder) Decode(r io.Reader) ([]Item, error) {
	parsed, err := d.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		items = append(items, Item{
			Title: strings.TrimSpace(entry.Title),
			Link:  strings.TrimSpace(entry.Link),
		})
	}
	return items, nil
}
