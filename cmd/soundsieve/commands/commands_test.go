package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/soundsieve/soundsieve/pkg/feature"
)

func TestPrintFeatureTable(t *testing.T) {
	entries := []feature.Entry{
		{Name: "dog_bark_20240101_120000", Path: "output_features/dog_bark_20240101_120000.txt",
			ModTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{Name: "rain_20240301_080000", Path: "output_features/rain_20240301_080000.txt",
			ModTime: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
	}

	var sb strings.Builder
	printFeatureTable(&sb, entries)
	out := sb.String()

	for _, want := range []string{"NAME", "dog_bark_20240101_120000", "rain_20240301_080000", "2024-03-01 08:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleEventsOutcome(t *testing.T) {
	t.Run("all succeeded", func(t *testing.T) {
		c := &consoleEvents{}
		c.Started()
		c.Progress(50)
		c.Progress(100)
		c.Finished([]string{"a.wav"})
		if err := c.err(); err != nil {
			t.Fatalf("err() = %v", err)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		c := &consoleEvents{}
		c.Started()
		c.Error("decode error: b.wav")
		c.Finished([]string{"a.wav"})
		err := c.err()
		if err == nil || !strings.Contains(err.Error(), "1 of 2") {
			t.Fatalf("err() = %v", err)
		}
	})

	t.Run("total failure", func(t *testing.T) {
		c := &consoleEvents{}
		c.Started()
		c.Error("model not loaded: htsat.onnx")
		c.Finished(nil)
		err := c.err()
		if err == nil || !strings.Contains(err.Error(), "model not loaded") {
			t.Fatalf("err() = %v", err)
		}
	})
}
