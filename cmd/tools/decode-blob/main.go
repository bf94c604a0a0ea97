// decode-blob — отладочная утилита: декодирует один markets64-блоб из файла
// или stdin и печатает записи в JSON.
//
//	decode-blob -file blob.txt
//	cat blob.txt | decode-blob
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Vodeneev/hotstreakline/internal/pkg/export"
	"github.com/Vodeneev/hotstreakline/internal/pkg/marketblob"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "decode-blob: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "file with a single markets64 string (default: stdin)")
	refsOnly := flag.Bool("refs", false, "print unique category refs instead of full records")
	flag.Parse()

	var data []byte
	var err error
	if *file != "" {
		data, err = os.ReadFile(*file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	encoded := strings.TrimSpace(string(data))
	if encoded == "" {
		return fmt.Errorf("empty input")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *refsOnly {
		refs := marketblob.ExtractCategoryRefs(encoded)
		fmt.Fprintf(os.Stderr, "digest=%s refs=%d\n", marketblob.Digest(encoded), len(refs))
		return enc.Encode(refs)
	}

	records := marketblob.Decode(encoded)
	fmt.Fprintf(os.Stderr, "digest=%s records=%d\n", marketblob.Digest(encoded), len(records))
	for _, rec := range records {
		fmt.Fprintf(os.Stderr, "  category=%s values=%d final=%s\n",
			rec.CategoryID, len(rec.TopValues), export.FormatOdds(rec.FinalLine))
	}
	return enc.Encode(records)
}
