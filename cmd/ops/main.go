package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"trailhead/internal/ops"
)

func main() {
	dataDir := flag.String("data", "data", "data directory to back up")
	out := flag.String("out", "", "archive path (default backups/trailhead-<date>.tar.gz)")
	flag.Parse()

	archive := *out
	if archive == "" {
		archive = fmt.Sprintf("backups/trailhead-%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	}

	if err := ops.BackupDataDir(*dataDir, archive); err != nil {
		log.Fatalf("backup: %v", err)
	}
	fmt.Printf("backup written to %s\n", archive)
}
