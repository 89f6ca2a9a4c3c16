package decoder

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

func TestStreamDeliversTextOnlyWhileRunning(t *testing.T) {
	s := NewStream(nil)

	if err := s.FeedText("early"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("FeedText before Start error = %v, want ErrNotRunning", err)
	}

	var got []string
	if err := s.Start(func(text string) { got = append(got, text) }, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(func(string) {}, nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}

	if err := s.FeedText("P1"); err != nil {
		t.Fatalf("FeedText() error = %v", err)
	}

	s.Stop()
	s.Stop()

	if err := s.FeedText("late"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("FeedText after Stop error = %v, want ErrNotRunning", err)
	}
	if len(got) != 1 || got[0] != "P1" {
		t.Fatalf("delivered = %v, want [P1]", got)
	}
}

func TestStreamStopFromCallback(t *testing.T) {
	s := NewStream(nil)
	calls := 0
	if err := s.Start(func(string) {
		calls++
		s.Stop()
	}, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := s.FeedText("x"); err != nil {
		t.Fatalf("FeedText() error = %v", err)
	}
	if s.Running() {
		t.Fatal("stream still running after Stop inside callback")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStreamReportError(t *testing.T) {
	s := NewStream(nil)
	var got error
	if err := s.Start(func(string) {}, func(err error) { got = err }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := s.ReportError(CameraError(KindPermission, "NotAllowedError")); err != nil {
		t.Fatalf("ReportError() error = %v", err)
	}
	if !errors.Is(got, ErrCameraPermission) {
		t.Fatalf("callback error = %v, want ErrCameraPermission", got)
	}
	if !strings.Contains(got.Error(), "NotAllowedError") {
		t.Fatalf("callback error %q lost the client message", got)
	}
}

func TestStreamFrameWithoutCode(t *testing.T) {
	s := NewStream(nil)
	delivered := false
	if err := s.Start(func(string) { delivered = true }, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	found, err := s.FeedFrame(&buf)
	if err != nil {
		t.Fatalf("FeedFrame() error = %v", err)
	}
	if found || delivered {
		t.Fatalf("blank frame reported a code (found=%v delivered=%v)", found, delivered)
	}
}

func TestStreamFrameWithCode(t *testing.T) {
	const payload = `{"name":"Urea","batch":"B1","bag":"7","id":"P-1","qty":"2"}`

	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 256, 256, nil)
	if err != nil {
		t.Fatalf("encode qr: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, matrix); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	s := NewStream(nil)
	var got string
	if err := s.Start(func(text string) { got = text }, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	found, err := s.FeedFrame(&buf)
	if err != nil {
		t.Fatalf("FeedFrame() error = %v", err)
	}
	if !found || got != payload {
		t.Fatalf("FeedFrame() found=%v text=%q, want %q", found, got, payload)
	}
}

func TestStreamRejectsGarbageFrame(t *testing.T) {
	s := NewStream(nil)
	if err := s.Start(func(string) {}, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := s.FeedFrame(strings.NewReader("not an image")); err == nil {
		t.Fatal("FeedFrame() accepted a non-image payload")
	}
}

func TestCameraErrorKinds(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want error
	}{
		{KindPermission, ErrCameraPermission},
		{KindNotFound, ErrNoCamera},
		{KindOther, ErrCameraUnavailable},
		{"weird", ErrCameraUnavailable},
	}

	for _, tt := range tests {
		if err := CameraError(tt.kind, ""); !errors.Is(err, tt.want) {
			t.Errorf("CameraError(%q) = %v, want %v", tt.kind, err, tt.want)
		}
	}
}
