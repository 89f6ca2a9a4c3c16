package decoder

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG frames
	_ "image/png"  // register PNG frames
	"io"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"go.uber.org/zap"
)

// Stream is the server-side decode loop of one session. Clients push camera
// frames, text decoded in the browser, or camera failures; Stream forwards them
// to the callbacks registered by Start until Stop is called.
type Stream struct {
	mu       sync.Mutex
	running  bool
	onDecode func(text string)
	onError  func(err error)
	logger   *zap.Logger
}

// NewStream builds a stopped decode loop.
func NewStream(logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{logger: logger}
}

// Start registers the callbacks and opens the loop.
func (s *Stream) Start(onDecode func(text string), onError func(err error)) error {
	if onDecode == nil {
		return fmt.Errorf("start decoder: onDecode callback is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	s.running = true
	s.onDecode = onDecode
	s.onError = onError
	s.logger.Debug("decoder started")
	return nil
}

// Stop closes the loop and drops the callbacks. It is safe to call repeatedly
// and from within a callback.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.onDecode = nil
	s.onError = nil
	s.logger.Debug("decoder stopped")
}

// Running reports whether the loop accepts input.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// FeedText delivers text already decoded by the client.
func (s *Stream) FeedText(text string) error {
	onDecode, _, ok := s.callbacks()
	if !ok {
		return ErrNotRunning
	}
	onDecode(text)
	return nil
}

// FeedFrame decodes one JPEG or PNG frame. It reports whether a QR code was
// found; frames without a code are skipped without error.
func (s *Stream) FeedFrame(r io.Reader) (bool, error) {
	if !s.Running() {
		return false, ErrNotRunning
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return false, fmt.Errorf("decode frame image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return false, fmt.Errorf("prepare frame bitmap: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		s.logger.Debug("no qr code in frame", zap.Error(err))
		return false, nil
	}

	// The loop may have been stopped while the frame was being decoded.
	onDecode, _, ok := s.callbacks()
	if !ok {
		return false, ErrNotRunning
	}
	onDecode(result.GetText())
	return true, nil
}

// ReportError forwards a camera failure to the registered error callback.
func (s *Stream) ReportError(err error) error {
	_, onError, ok := s.callbacks()
	if !ok {
		return ErrNotRunning
	}
	if onError != nil {
		onError(err)
	}
	return nil
}

func (s *Stream) callbacks() (func(string), func(error), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onDecode, s.onError, s.running
}
