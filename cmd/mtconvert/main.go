// Command mtconvert converts an MTConnect streams document between the
// registered formats.
//
//	mtconvert -from XML -to JSON-cppagent -in current.xml
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/formatter"
)

func main() {
	from := flag.String("from", formatter.XML, "input format")
	to := flag.String("to", formatter.JSON, "output format")
	in := flag.String("in", "-", "input file, - for stdin")
	out := flag.String("out", "-", "output file, - for stdout")
	indent := flag.Bool("indent", false, "indent the output")
	categories := flag.Bool("category", false, "emit category on JSON observations")
	catalogPaths := flag.String("catalog", "", "comma separated directories with catalog extensions")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var searchPaths []string
	if *catalogPaths != "" {
		searchPaths = strings.Split(*catalogPaths, ",")
	}
	loader, err := catalog.NewLoader(searchPaths, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog loader", zap.Error(err))
	}
	cat, err := loader.Load()
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	registry := formatter.NewRegistry(cat, formatter.Options{
		CategoryOutput: *categories,
		Indent:         *indent,
	}, logger)

	data, err := readInput(*in)
	if err != nil {
		logger.Fatal("Failed to read input", zap.String("in", *in), zap.Error(err))
	}

	converted, err := registry.Convert(*from, *to, data)
	if err != nil {
		logger.Fatal("Conversion failed",
			zap.String("from", *from),
			zap.String("to", *to),
			zap.Error(err))
	}

	if err := writeOutput(*out, converted); err != nil {
		logger.Fatal("Failed to write output", zap.String("out", *out), zap.Error(err))
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(os.Stdout)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
