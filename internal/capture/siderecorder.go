package capture

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/buelmanager/enpeak-voice/internal/recording"
)

// SideRecorder accumulates the raw PCM audio of the current utterance from
// its own tap on the microphone stream, in parallel with recognition. The
// router retrieves the blob when a low-confidence transcript needs a second
// opinion from the fallback transcription service.
type SideRecorder struct {
	mu   sync.Mutex
	data []byte
	done chan struct{}
}

func NewSideRecorder() *SideRecorder {
	return &SideRecorder{done: make(chan struct{})}
}

// Run consumes frames until the tap closes. Call in its own goroutine.
func (r *SideRecorder) Run(frameCh <-chan recording.AudioFrame) {
	defer close(r.done)
	for frame := range frameCh {
		r.mu.Lock()
		r.data = append(r.data, frame.Data...)
		r.mu.Unlock()
	}
}

// StopAndBlob waits for the tap to drain and returns the recorded audio as
// a WAV blob, or nil if nothing was recorded.
func (r *SideRecorder) StopAndBlob() []byte {
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) == 0 {
		return nil
	}
	return encodeWAV(r.data)
}

// Reset discards accumulated audio for reuse within a session restart.
func (r *SideRecorder) Reset() {
	r.mu.Lock()
	r.data = r.data[:0]
	r.mu.Unlock()
}

// encodeWAV wraps raw 16-bit 16kHz mono PCM in a WAV header.
func encodeWAV(rawAudio []byte) []byte {
	var buf bytes.Buffer

	const sampleRate = 16000
	const channels = 1
	const bitsPerSample = 16
	const byteRate = sampleRate * channels * bitsPerSample / 8
	const blockAlign = channels * bitsPerSample / 8

	dataSize := len(rawAudio)
	fileSize := 36 + dataSize

	// WAV header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))            // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))             // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(channels))      // number of channels
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))    // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))      // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))    // block align
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample)) // bits per sample

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(rawAudio)

	return buf.Bytes()
}
