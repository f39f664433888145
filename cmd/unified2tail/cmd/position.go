package cmd

import "github.com/arborwatch/unified2spool/pkg/unified2"

// bookmarkPosition adapts a Bookmark to statusapi.Position, reading the
// file fresh on every call so /api/v1/status always reflects the latest
// durable tail position rather than a snapshot taken at server start.
type bookmarkPosition struct {
	bookmark *unified2.Bookmark
}

func (p *bookmarkPosition) Tell() (string, int64) {
	filename, offset, err := p.bookmark.Get()
	if err != nil {
		return "", 0
	}
	return filename, offset
}
