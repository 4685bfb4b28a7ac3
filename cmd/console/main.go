// Command console runs the TeaOS shell in a terminal.
package main

import (
	"bufio"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"teaos/pkg/config"
	"teaos/pkg/console"
	"teaos/pkg/native"
	"teaos/pkg/shell"
	"teaos/pkg/vfs"
)

const syncInterval = 3 * time.Second

// repl feeds lines from in to sh until end of input or exit.
func repl(sh *shell.Shell, term *console.Terminal, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		term.Prompt(shell.Prompt)
		if !scanner.Scan() {
			term.Println("", console.Info)
			return
		}
		if !sh.Exec(scanner.Text()) {
			return
		}
	}
}

func main() {
	configPath := flag.String("config", config.FileName, "settings file")
	storagePath := flag.String("storage", "", "host directory the disk is loaded from and synced to")
	imagePath := flag.String("image", "", "CBOR disk image loaded at start and saved at exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *storagePath != "" {
		cfg.StoragePath = *storagePath
	}
	if *imagePath != "" {
		cfg.ImagePath = *imagePath
	}
	commonlog.Configure(cfg.Verbosity, nil)

	disk := vfs.NewVirtualDisk()
	if cfg.ImagePath != "" {
		if err := disk.LoadImageFile(cfg.ImagePath); err != nil {
			log.Fatalf("Failed to load disk image: %v", err)
		}
	}
	if cfg.StoragePath != "" {
		if err := disk.LoadFrom(cfg.StoragePath); err != nil {
			log.Fatalf("Failed to load storage: %v", err)
		}
	}

	var exec native.Executor
	if buf, err := native.NewBuffer(); err == nil {
		defer buf.Close()
		exec = buf
	} else {
		commonlog.GetLogger("teaos.console").Infof("native execution unavailable: %s", err)
	}

	term := console.NewTerminal(os.Stdout, cfg.Color)
	sh := shell.New(disk, term, exec, cfg.StepBudget)
	sh.Clear = term.Clear

	// Start background disk syncer (flushes the dirty disk to the host every 3 s)
	stopSyncer := make(chan struct{})
	if cfg.StoragePath != "" {
		syncLog := commonlog.GetLogger("teaos.console")
		go disk.SyncEvery(cfg.StoragePath, syncInterval, stopSyncer, func(err error) {
			syncLog.Errorf("disk sync: %s", err)
		})
	}

	sh.Welcome()
	repl(sh, term, os.Stdin)

	close(stopSyncer)
	if cfg.StoragePath != "" && disk.IsDirty() {
		if err := disk.PersistTo(cfg.StoragePath); err != nil {
			log.Printf("Final disk sync failed: %v", err)
		}
	}
	if cfg.ImagePath != "" {
		if err := disk.SaveImageFile(cfg.ImagePath); err != nil {
			log.Printf("Failed to save disk image: %v", err)
		}
	}
}
