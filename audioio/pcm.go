package audioio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
)

type pcmDecoder interface {
	PCMBuffer(buf *audio.IntBuffer) (int, error)
	Duration() (time.Duration, error)
}

type pcmEncoder interface {
	Write(buf *audio.IntBuffer) error
	Close() error
}

// fileReader holds what the wave and aiff readers share once their
// decoder has read the header.
type fileReader struct {
	AudioFile
	ReadBuffer      *audio.IntBuffer
	NumSampleFrames int
	Duration        float64
	decoder         pcmDecoder
	fileIo          *os.File
}

func (r *fileReader) GetBitDepth() int {
	return r.BitDepth
}

func (r *fileReader) GetSampleRate() int {
	return r.SampleRate
}

func (r *fileReader) GetNumChans() int {
	return r.NumChans
}

func (r *fileReader) GetNumSampleFrames() int {
	return r.NumSampleFrames
}

func (r *fileReader) GetDuration() float64 {
	return r.Duration
}

// setup validates the header fields and allocates a read buffer of
// bufferLength frames.
func (r *fileReader) setup(numChans, bitDepth, sampleRate, bufferLength int) error {
	switch {
	case numChans == 0:
		return errors.New("file has no channels")
	case sampleRate == 0:
		return errors.New("file has a sample rate of 0")
	case bitDepth == 0:
		return errors.New("file has a bit depth of 0")
	}

	r.NumChans = numChans
	r.BitDepth = bitDepth
	r.SampleRate = sampleRate

	duration, err := r.decoder.Duration()
	if err != nil {
		return err
	}
	r.Duration = duration.Seconds()

	r.ReadBuffer = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: r.NumChans,
			SampleRate:  r.SampleRate,
		},
		Data:           make([]int, bufferLength*r.NumChans),
		SourceBitDepth: r.BitDepth,
	}

	return nil
}

// ExtractChannel copies one zero indexed channel out of the read buffer.
func (r *fileReader) ExtractChannel(channel int) (*audio.IntBuffer, error) {
	if r.NumChans == 0 {
		return nil, errors.New("no channels to extract")
	}

	if channel < 0 || channel > r.NumChans-1 {
		return nil, fmt.Errorf("requested channel (%d) is out of bounds 0-%d", channel, r.NumChans-1)
	}

	frames := r.ReadBuffer.NumFrames()
	buffer := &audio.IntBuffer{
		Format:         r.ReadBuffer.Format,
		Data:           make([]int, frames),
		SourceBitDepth: r.ReadBuffer.SourceBitDepth,
	}

	x := 0
	for i := channel; i < len(r.ReadBuffer.Data); i += r.NumChans {
		buffer.Data[x] = r.ReadBuffer.Data[i]
		x++
	}

	return buffer, nil
}

func (r *fileReader) Close() error {
	if r.fileIo == nil {
		return nil
	}
	return r.fileIo.Close()
}

// ReadNext fills the read buffer. numSamples counts across all channels,
// numFrames per channel.
func (r *fileReader) ReadNext() (numSamples, numFrames int, err error) {
	numSamples, err = r.decoder.PCMBuffer(r.ReadBuffer)
	numFrames = numSamples / r.NumChans
	return
}

// fileWriter is the encoder independent half of the wave and aiff writers.
type fileWriter struct {
	AudioFile
	WriteBuffer    *audio.IntBuffer
	encoder        pcmEncoder
	maxSampleValue int
	fileIo         *os.File
}

func (w *fileWriter) setup(bufferLength int) error {
	w.WriteBuffer = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: w.NumChans,
			SampleRate:  w.SampleRate,
		},
		Data:           make([]int, bufferLength*w.NumChans),
		SourceBitDepth: w.BitDepth,
	}

	w.maxSampleValue = IntMaxSignedValue[w.BitDepth]
	if w.maxSampleValue == 0 {
		return fmt.Errorf("unsupported bit depth %d", w.BitDepth)
	}

	return nil
}

// Close finalises the header and closes the file.
func (w *fileWriter) Close() error {
	var err error
	if w.encoder != nil {
		err = w.encoder.Close()
	}
	if w.fileIo != nil {
		if cerr := w.fileIo.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Write clips any sample beyond the bit depth rather than letting the
// encoder wrap it.
func (w *fileWriter) Write(buffer *audio.IntBuffer) error {
	for i := range buffer.Data {
		if buffer.Data[i] > w.maxSampleValue {
			buffer.Data[i] = w.maxSampleValue
		} else if buffer.Data[i] < -w.maxSampleValue {
			buffer.Data[i] = -w.maxSampleValue
		}
	}

	return w.encoder.Write(buffer)
}

func (w *fileWriter) ZeroWriteBuffer() {
	for i := range w.WriteBuffer.Data {
		w.WriteBuffer.Data[i] = 0
	}
}

func (w *fileWriter) WriteNext() error {
	return w.Write(w.WriteBuffer)
}

func (w *fileWriter) InterleaveChannel(channel int, data []int) error {
	if len(data)*w.NumChans != len(w.WriteBuffer.Data) {
		return errors.New("data to interleave will not fit exactly into the write buffer")
	}

	for frame, v := range data {
		w.WriteBuffer.Data[frame*w.NumChans+channel] = v
	}

	return nil
}
