package downloader

import (
	"io"

	"github.com/cheggaaa/pb"
)

// progressBar counts committed files. Without an output it discards all updates.
type progressBar struct {
	bar *pb.ProgressBar
}

func newProgressBar(w io.Writer, prefix string, total int) *progressBar {
	if w == nil || total == 0 {
		return &progressBar{}
	}

	bar := pb.New(total)
	bar.Output = w
	bar.ShowSpeed = false
	bar.ShowTimeLeft = false
	bar.Prefix(prefix)
	bar.Start()
	return &progressBar{bar: bar}
}

func (p *progressBar) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progressBar) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
