// Command generate-watch-tree builds a throwaway directory tree and
// keeps mutating it, for exercising the watch pipeline by hand:
//
//	go run scripts/generate-watch-tree.go -root /tmp/watchtree -interval 2s
//
// Point a .watchpost.yaml directory entry at the root, start
// 'watchpost watch', and watch the debounce and cooldown behavior as
// files appear, change and disappear.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var names = []string{
	"invoice.pdf", "report.txt", "photo.jpg", "backup.zip",
	"notes.md", "data.csv", "contract.docx", "readme.txt",
}

var subdirs = []string{"", "incoming", "incoming/vendor", "processed"}

func main() {
	root := flag.String("root", "", "directory to populate (required)")
	interval := flag.Duration("interval", 2*time.Second, "delay between mutations")
	count := flag.Int("count", 0, "number of mutations, 0 for unlimited")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if *root == "" {
		fmt.Fprintln(os.Stderr, "usage: generate-watch-tree -root <dir> [-interval 2s] [-count N]")
		os.Exit(2)
	}

	rng := rand.New(rand.NewSource(*seed))

	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(*root, sub), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Printf("mutating %s every %s (ctrl-c to stop)\n", *root, *interval)
	for i := 0; *count == 0 || i < *count; i++ {
		path := filepath.Join(*root, subdirs[rng.Intn(len(subdirs))], names[rng.Intn(len(names))])
		if err := mutate(rng, path); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		time.Sleep(*interval)
	}
}

// mutate creates, grows, or removes the file at path.
func mutate(rng *rand.Rand, path string) error {
	switch rng.Intn(4) {
	case 0:
		if err := os.Remove(path); err == nil {
			fmt.Printf("deleted  %s\n", path)
			return nil
		}
		fallthrough
	default:
		payload := make([]byte, 64+rng.Intn(4096))
		rng.Read(payload)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := f.Write(payload); err != nil {
			return err
		}
		fmt.Printf("wrote    %s (+%d bytes)\n", path, len(payload))
		return nil
	}
}
