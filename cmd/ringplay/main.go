package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tapedeck/ringstream/internal/audio"
	"github.com/tapedeck/ringstream/internal/cli"
	"github.com/tapedeck/ringstream/internal/config"
	"github.com/tapedeck/ringstream/internal/playback"
	"github.com/tapedeck/ringstream/internal/ui"
)

// version is set via ldflags at build time
var version = "dev"

var CLI struct {
	Input   string  `arg:"" name:"input" help:"Audio file to play (wav, mp3, flac, ogg)" optional:""`
	Volume  float64 `help:"Playback gain" default:"1.0"`
	Buffer  int     `help:"Ring buffer capacity in seconds" default:"4"`
	Start   float64 `help:"Start position in seconds" default:"0"`
	Version bool    `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("ringplay"),
		kong.Description("Seekable streaming audio player built on a ring buffer."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Input == "" {
		cli.PrintError("<input> is required")
		os.Exit(1)
	}
	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}
	if CLI.Buffer < 1 {
		cli.PrintError(fmt.Sprintf("invalid buffer length: %ds", CLI.Buffer))
		os.Exit(1)
	}

	if err := play(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func play() error {
	size := config.SampleRate * config.Channels * CLI.Buffer
	buf, err := audio.NewBuffer(CLI.Input, config.SampleRate, size)
	if err != nil {
		return err
	}
	defer buf.Close()

	if err := playback.Init(); err != nil {
		return err
	}
	defer playback.Terminate()

	player, err := playback.NewPlayer(buf)
	if err != nil {
		return err
	}
	defer player.Close()

	player.SetVolume(float32(CLI.Volume))
	if CLI.Start > 0 {
		player.SeekTo(CLI.Start)
	}

	// Give the decoder a head start before the device starts pulling.
	for i := 0; i < 50 && !player.Ready(); i++ {
		time.Sleep(20 * time.Millisecond)
	}

	if err := player.Start(); err != nil {
		return err
	}
	defer player.Stop()

	m := ui.NewModel(player, filepath.Base(CLI.Input), buf.Duration())
	_, err = tea.NewProgram(m).Run()
	return err
}
