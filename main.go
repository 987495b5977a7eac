package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"gorsynth/audioio"
	"gorsynth/charter"
	"gorsynth/cli"
	"gorsynth/elements"
	"gorsynth/logger"
	"gorsynth/phonemes"
	"gorsynth/render"
	"gorsynth/spectrum"
)

var Version = ""

func fail(msg ...interface{}) {
	fmt.Fprintln(os.Stderr, msg...)
	logger.Sync()
	os.Exit(1)
}

func main() {
	// parse cli flags/arguments
	parsedArgs, err := cli.ParseFlags(os.Args, Version)
	if err != nil {
		fail(err)
	}

	if parsedArgs.Command == cli.VersionCommand {
		fmt.Println("gorsynth", Version)
		return
	}

	cfg := parsedArgs.Config
	if err := logger.Init(cfg.Logger()); err != nil {
		fail(err)
	}
	defer logger.Sync()

	table, err := cfg.Table()
	if err != nil {
		fail("Could not load element table:", err)
	}

	renderCfg, err := cfg.Render()
	if err != nil {
		fail(err)
	}

	utterance, err := phonemes.Convert(table, parsedArgs.Phonemes, phonemes.Options{
		Speed:          cfg.Frames.Speed,
		F0Default:      cfg.Speaker.F0,
		Flat:           cfg.Frames.Flat,
		WordBoundaries: cfg.Frames.WordBoundaries,
	})
	if err != nil {
		fail(err)
	}

	renderer, err := render.New(table, renderCfg)
	if err != nil {
		fail(err)
	}

	logger.L.Infow("converted phonemes",
		"phonemes", parsedArgs.Phonemes,
		"segments", len(utterance.Segments),
		"frames", utterance.Frames(),
	)

	switch parsedArgs.Command {
	case cli.SayCommand:
		say(parsedArgs, renderer, utterance)
	case cli.FramesCommand:
		frames(parsedArgs, table, renderer, utterance)
	}
}

func say(parsedArgs *cli.Arguments, renderer *render.Renderer, utterance phonemes.Result) {
	if !parsedArgs.Quiet {
		fmt.Print(renderer.Synthesizer().String())
		fmt.Printf("%24s   %s\n", "Phonemes:", parsedArgs.Phonemes)
		fmt.Printf("%24s   %d\n", "Frames:", utterance.Frames())
		fmt.Printf("%24s   %.2f s\n", "Output Duration:", float64(utterance.Frames()*renderer.SamplesPerFrame())/float64(renderer.SampleRate()))
		if len(utterance.WordBoundaries) > 0 {
			fmt.Printf("%24s   %v\n", "Word Boundaries:", utterance.WordBoundaries)
		}
	}

	audioWriter, err := audioio.NewAudioWriter(audioio.AudioFile{
		Filepath:   parsedArgs.OutputPath,
		NumChans:   1,
		SampleRate: renderer.SampleRate(),
		BitDepth:   16,
	})
	if err != nil {
		fail("Could not create output audio file:", err)
	}

	if err = audioWriter.Create(renderer.SamplesPerFrame()); err != nil {
		fail("Could not open audio file for writing:", parsedArgs.OutputPath)
	}

	// progress will be a number 0-100
	progress := make(chan int)
	errors := make(chan error)
	done := make(chan bool)

	bar := progressbar.NewOptions(
		100,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("synthesizing..."),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]=[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	go renderer.Run(
		utterance.Segments,
		utterance.Contour,
		audioWriter,
		progress,
		errors,
		done,
	)

	// wait for messages
	wait := true
	for wait {
		select {
		case err := <-errors:
			audioWriter.Close()
			fail("\n >>> Synthesis error:", err, " <<<")
		case curProgress := <-progress:
			if !parsedArgs.Quiet {
				bar.Set(curProgress)
			}
		case <-done:
			wait = false
		}
	}

	if err := audioWriter.Close(); err != nil {
		fail("Could not finish audio file:", err)
	}

	stats := renderer.Synthesizer().Stats()
	logger.L.Infow("wrote audio", "path", parsedArgs.OutputPath, "samples", stats.Samples, "clipped", stats.Clipped)

	if !parsedArgs.Quiet {
		fmt.Printf("\n\n%24s   %.1f Hz\n", "Mean F0:", stats.MeanF0())
		fmt.Printf("%24s   %d\n", "Clipped Samples:", stats.Clipped)
		fmt.Println("\nDone!", parsedArgs.OutputPath)
	}
}

func frames(parsedArgs *cli.Arguments, table *elements.Table, renderer *render.Renderer, utterance phonemes.Result) {
	params, err := renderer.Frames(utterance.Segments, utterance.Contour)
	if err != nil {
		fail(err)
	}

	fmt.Printf("=== PHONEMES ===\n  %s\n\n", parsedArgs.Phonemes)
	if err := render.Report(os.Stdout, table, parsedArgs.Config.Synth.MsPerFrame, utterance.Segments, params, parsedArgs.AllFrames); err != nil {
		fail(err)
	}

	if parsedArgs.ChartDir == "" {
		return
	}

	samples, _, err := renderer.Samples(utterance.Segments, utterance.Contour)
	if err != nil {
		fail(err)
	}

	window, _ := spectrum.ParseWindow(parsedArgs.Window)
	mags, err := spectrum.Average(samples, 1024, window)
	if err != nil {
		fail(err)
	}

	lines := charter.FrameCharts(parsedArgs.Phonemes, params, parsedArgs.AllFrames)
	lines = append(lines, charter.SpectrumChart(parsedArgs.Phonemes, mags, renderer.SampleRate()))

	path := filepath.Join(parsedArgs.ChartDir, "frames.html")
	if err := charter.WritePage(path, lines...); err != nil {
		fail("Could not write charts:", err)
	}

	if !parsedArgs.Quiet {
		fmt.Println("\nCharts:", path)
	}
}
