package audioio

import (
	"os"

	"github.com/go-audio/aiff"
)

type AiffReader struct {
	fileReader
}

type AiffWriter struct {
	fileWriter
}

// Open reads the header. bufferLength is how many frames each ReadNext
// reads.
func (ar *AiffReader) Open(bufferLength int) error {
	var err error

	ar.fileIo, err = os.Open(ar.Filepath)
	if err != nil {
		return err
	}

	dec := aiff.NewDecoder(ar.fileIo)
	dec.ReadInfo()
	ar.decoder = dec

	if err := ar.setup(int(dec.NumChans), int(dec.BitDepth), int(dec.SampleRate), bufferLength); err != nil {
		return err
	}
	ar.NumSampleFrames = int(dec.NumSampleFrames)

	return nil
}

func (aw *AiffWriter) Create(bufferLength int) error {
	if err := aw.setup(bufferLength); err != nil {
		return err
	}

	var err error
	aw.fileIo, err = os.Create(aw.Filepath)
	if err != nil {
		return err
	}

	aw.encoder = aiff.NewEncoder(
		aw.fileIo,
		aw.SampleRate,
		aw.BitDepth,
		aw.NumChans,
	)

	return nil
}
