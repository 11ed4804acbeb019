/*
Package ikon is a framework for building encoders and decoders of icon formats,
like .ico and .icns files, favicon sets or plain PNG sequences.

An icon is represented as a map between keys and images. The key type of an icon
format decides how the icon can be indexed, and every key reduces to the raster
size of its entry. Each key can only be associated with a single image.

Raster graphics are rescaled with resampling filters: functions which take a source
image and a target size and return the rescaled image. Nearest, Linear, Cubic,
CatmullRom and the content aware Carve filter are provided, but any function
matching the Filter signature can be used. Vector graphics (SVG) are rendered
directly at the requested resolution.

The format implementations are located in the ico, icns, pngseq and favicon packages.
In case you wish to use them from your own code, here is a simple example:

	package main

	import (
		"log"

		"github.com/esimov/ikon"
		"github.com/esimov/ikon/ico"
	)

	func main() {
		src, err := ikon.Open("logo.svg")
		if err != nil {
			log.Fatal(err)
		}

		icon := ico.New()
		if err := ikon.AddEntries(icon, ikon.Cubic, src, []ico.Key{16, 32, 48, 256}); err != nil {
			log.Fatal(err)
		}
		if err := ikon.Save(icon, "favicon.ico"); err != nil {
			log.Fatal(err)
		}
	}

The package also provides a command line interface, which bakes icons from images:

	$ ikon --help
*/
package ikon
