package audioio

import (
	"os"

	"github.com/go-audio/wav"
)

type WaveReader struct {
	fileReader
}

type WaveWriter struct {
	fileWriter
}

// Open reads the header. bufferLength is how many frames each ReadNext
// reads.
func (wr *WaveReader) Open(bufferLength int) error {
	var err error

	wr.fileIo, err = os.Open(wr.Filepath)
	if err != nil {
		return err
	}

	dec := wav.NewDecoder(wr.fileIo)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return err
	}
	wr.decoder = dec

	if err := wr.setup(int(dec.NumChans), int(dec.BitDepth), int(dec.SampleRate), bufferLength); err != nil {
		return err
	}
	wr.NumSampleFrames = int(wr.Duration * float64(wr.SampleRate))

	return nil
}

// Create opens the file and an encoder writing bufferLength frames at a
// time.
func (wr *WaveWriter) Create(bufferLength int) error {
	if err := wr.setup(bufferLength); err != nil {
		return err
	}

	var err error
	wr.fileIo, err = os.Create(wr.Filepath)
	if err != nil {
		return err
	}

	wr.encoder = wav.NewEncoder(
		wr.fileIo,
		wr.SampleRate,
		wr.BitDepth,
		wr.NumChans,
		1, // linear PCM
	)

	return nil
}
