//go:build headless

package audio

import "github.com/pkg/errors"

// OtoPlayer is unavailable in headless builds.
type OtoPlayer struct{}

func NewOtoPlayer(stream *Stream, bufferFrames int) (*OtoPlayer, error) {
	return nil, errors.New("oto output not available in headless builds")
}

func (op *OtoPlayer) Start()          {}
func (op *OtoPlayer) Stop()           {}
func (op *OtoPlayer) Close() error    { return nil }
func (op *OtoPlayer) IsStarted() bool { return false }
