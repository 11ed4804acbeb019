package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/bake"
	"github.com/esimov/ikon/utils"
)

const HelpBanner = `
┬┬┌─┌─┐┌┐┌
│├┴┐│ ││││
┴┴ ┴└─┘┘└┘

Icon baker: ico, icns, favicon and png sequence encoder.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

// Config holds the defaults of the command line flags, read from the environment.
type Config struct {
	Format     string `env:"IKON_FORMAT"`
	Sizes      []int  `env:"IKON_SIZES" envSeparator:","`
	TouchSizes []int  `env:"IKON_TOUCH_SIZES" envSeparator:"," envDefault:"180"`
	TouchBg    string `env:"IKON_TOUCH_BACKGROUND"`
	Filter     string `env:"IKON_FILTER" envDefault:"cubic"`
	Workers    int    `env:"IKON_WORKERS"`
}

func joinSizes(sizes []int) string {
	s := make([]string, len(sizes))
	for i, n := range sizes {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}

func main() {
	log.SetFlags(0)

	var cfg Config
	if err := utils.ParseEnv(&cfg); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	var (
		source      = flag.String("in", pipeName, "Source image (file, directory, URL or - for stdin)")
		destination = flag.String("out", pipeName, "Destination icon (file, directory or - for stdout)")
		format      = flag.String("format", cfg.Format, "Icon format: ico, icns, favicon or png (guessed from -out when empty)")
		sizes       = flag.String("sizes", joinSizes(cfg.Sizes), "Comma separated entry sizes (format defaults when empty)")
		touchSizes  = flag.String("touch", joinSizes(cfg.TouchSizes), "Comma separated Apple touch icon sizes of favicon sets")
		touchBg     = flag.String("touch-bg", cfg.TouchBg, "Background color of the Apple touch icons, in hex (transparent when empty)")
		filter      = flag.String("filter", cfg.Filter, "Resampling filter: "+strings.Join(ikon.FilterNames(), ", "))
		workers     = flag.Int("conc", cfg.Workers, "Number of files to process concurrently")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *source == pipeName && *destination == pipeName && flag.NFlag() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	proc := &bake.Processor{}

	var err error
	if *format != "" {
		if proc.Format, err = bake.ParseFormat(*format); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
	}
	if proc.Sizes, err = bake.ParseSizes(*sizes); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if proc.TouchSizes, err = bake.ParseSizes(*touchSizes); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if proc.Filter, err = ikon.ParseFilter(*filter); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if *touchBg != "" {
		bg, err := utils.HexToRGBA(*touchBg)
		if err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
		proc.TouchBackground = bg
	}

	proc.Spinner = utils.NewSpinner(utils.Headline("is baking the icons..."), time.Millisecond*200, true)

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		proc.Spinner.RestoreCursor()
		os.Exit(1)
	}()

	op := &bake.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
	}
	if err := proc.Execute(op); err != nil {
		log.Fatal(utils.DecorateText(fmt.Sprintf("\n%v", err), utils.ErrorMessage))
	}
}
