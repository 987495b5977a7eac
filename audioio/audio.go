// Package audioio reads and writes mono PCM sound files for the synthesizer:
// WAVE and AIFF output, and custom glottal waveforms loaded from disk.
package audioio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"

	"gorsynth/klatt"
)

var IntMaxSignedValue = map[int]int{
	8:  127,
	16: 32767,
	24: 8388607,
	32: 2147483647,
}

// FileType is a supported container format.
type FileType int

const (
	TypeInvalid FileType = iota - 1
	_
	TypeAIFF
	TypeWAVE
)

func (t FileType) String() string {
	switch t {
	case TypeAIFF:
		return "aiff"
	case TypeWAVE:
		return "wave"
	}
	return "invalid"
}

// Extension is the file extension written for t.
func (t FileType) Extension() string {
	switch t {
	case TypeAIFF:
		return ".aif"
	case TypeWAVE:
		return ".wav"
	}
	return ""
}

var ErrInvalidFileType = errors.New("invalid file type")

type Reader interface {
	Open(bufferLength int) error
	Close() error
	ReadNext() (int, int, error)
	ExtractChannel(channel int) (*audio.IntBuffer, error)
	GetBitDepth() int
	GetSampleRate() int
	GetNumChans() int
	GetNumSampleFrames() int
	GetDuration() float64
}

type Writer interface {
	Create(bufferLength int) error
	Close() error
	Write(buffer *audio.IntBuffer) error
	WriteNext() error
	InterleaveChannel(channel int, data []int) error
	ZeroWriteBuffer()
}

type AudioFile struct {
	Filepath   string
	NumChans   int
	BitDepth   int
	SampleRate int
}

type AudioReader struct {
	Reader
	fileType FileType
}

type AudioWriter struct {
	Writer
	fileType FileType
}

// FileTypeFromExtension picks a file type from the extension. The file does
// not have to exist.
func FileTypeFromExtension(filePath string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".aiff", ".aif":
		return TypeAIFF, nil
	case ".wave", ".wav":
		return TypeWAVE, nil
	}

	return TypeInvalid, ErrInvalidFileType
}

// FileTypeFromHeader reads the magic bytes of an existing file.
func FileTypeFromHeader(filePath string) (FileType, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return TypeInvalid, err
	}
	defer file.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return TypeInvalid, ErrInvalidFileType
	}

	magic := append(append([]byte{}, header[:4]...), header[8:]...)

	switch {
	case bytes.Equal(magic, []byte("FORMAIFF")):
		return TypeAIFF, nil
	case bytes.Equal(magic, []byte("RIFFWAVE")):
		return TypeWAVE, nil
	}

	return TypeInvalid, ErrInvalidFileType
}

func NewAudioReader(filePath string) (*AudioReader, error) {
	fileType, err := FileTypeFromHeader(filePath)
	if err != nil {
		return nil, err
	}

	file := AudioFile{Filepath: filePath}

	switch fileType {
	case TypeAIFF:
		return &AudioReader{Reader: &AiffReader{fileReader: fileReader{AudioFile: file}}, fileType: fileType}, nil
	case TypeWAVE:
		return &AudioReader{Reader: &WaveReader{fileReader: fileReader{AudioFile: file}}, fileType: fileType}, nil
	}

	return nil, fmt.Errorf("no reader for file type %s", fileType)
}

// FileType is the container being read.
func (ar *AudioReader) FileType() FileType {
	return ar.fileType
}

// NewAudioWriter picks the encoder from the extension of audioFile.Filepath.
func NewAudioWriter(audioFile AudioFile) (*AudioWriter, error) {
	fileType, err := FileTypeFromExtension(audioFile.Filepath)
	if err != nil {
		return nil, err
	}

	switch fileType {
	case TypeAIFF:
		return &AudioWriter{Writer: &AiffWriter{fileWriter: fileWriter{AudioFile: audioFile}}, fileType: fileType}, nil
	case TypeWAVE:
		return &AudioWriter{Writer: &WaveWriter{fileWriter: fileWriter{AudioFile: audioFile}}, fileType: fileType}, nil
	}

	return nil, fmt.Errorf("no writer for file type %s", fileType)
}

// FileType is the container being written.
func (aw *AudioWriter) FileType() FileType {
	return aw.fileType
}

// ReadMono reads every frame of one channel of a sound file.
func ReadMono(filePath string, channel int) ([]int, int, error) {
	ar, err := NewAudioReader(filePath)
	if err != nil {
		return nil, 0, err
	}

	if err := ar.Open(4096); err != nil {
		ar.Close()
		return nil, 0, err
	}
	defer ar.Close()

	var out []int
	for {
		_, numFrames, err := ar.ReadNext()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, err
		}
		if numFrames == 0 {
			break
		}

		buf, err := ar.ExtractChannel(channel)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, buf.Data[:numFrames]...)
	}

	return out, ar.GetSampleRate(), nil
}

// WriteMono writes samples as a single channel 16 bit file. The format
// comes from the extension.
func WriteMono(filePath string, samples []int16, sampleRate int) error {
	aw, err := NewAudioWriter(AudioFile{
		Filepath:   filePath,
		NumChans:   1,
		BitDepth:   16,
		SampleRate: sampleRate,
	})
	if err != nil {
		return err
	}

	if err := aw.Create(len(samples)); err != nil {
		return err
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	if err := aw.InterleaveChannel(0, data); err != nil {
		aw.Close()
		return err
	}
	if err := aw.WriteNext(); err != nil {
		aw.Close()
		return err
	}

	return aw.Close()
}

// LoadWaveform reads one glottal period from the first channel of a sound
// file and scales it to the synthesizer's source peak.
func LoadWaveform(filePath string) ([]float64, error) {
	data, _, err := ReadMono(filePath, 0)
	if err != nil {
		return nil, fmt.Errorf("reading waveform %s: %w", filePath, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("waveform %s has no samples", filePath)
	}

	silent := true
	wave := make([]float64, len(data))
	for i, v := range data {
		wave[i] = float64(v)
		if v != 0 {
			silent = false
		}
	}

	if silent {
		return nil, fmt.Errorf("waveform %s is silent", filePath)
	}

	return klatt.NormalizeWaveform(wave, klatt.SourcePeak), nil
}
