package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// LinkQR renders links, such as a transaction's block explorer page, as a
// terminal QR code so they can be opened on a phone.
type LinkQR struct {
	Level      qr.Level
	QuietZone  int
	HalfBlocks bool
}

// DefaultLinkQR returns settings suited to explorer URLs in a terminal.
func DefaultLinkQR() LinkQR {
	return LinkQR{
		Level:      qr.M,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// CanRenderQR reports whether w is a terminal.
func CanRenderQR(w io.Writer) bool {
	return isTerminal(w)
}

// Render writes link as a QR code. Nothing is written when link is empty
// or w is not a terminal.
func (q LinkQR) Render(w io.Writer, link string) {
	if link == "" || !CanRenderQR(w) {
		return
	}
	q.render(w, link)
}

func (q LinkQR) render(w io.Writer, link string) {
	qrterminal.GenerateWithConfig(link, qrterminal.Config{
		Level:          q.Level,
		Writer:         w,
		QuietZone:      q.QuietZone,
		HalfBlocks:     q.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
}
