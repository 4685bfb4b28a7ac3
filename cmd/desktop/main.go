// Command desktop runs the TeaOS shell in a window that mimics the VGA text
// console.
package main

import (
	"flag"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/image/font/basicfont"

	"teaos/pkg/config"
	"teaos/pkg/console"
	"teaos/pkg/grid"
	"teaos/pkg/native"
	"teaos/pkg/shell"
	"teaos/pkg/vfs"
)

const (
	charWidth  = 8
	charHeight = 16
	// inputRow is the extra row below the console holding the prompt.
	inputRow = console.ScreenRows
	maxInput = console.ScreenCols - len(shell.Prompt) - 1
)

var palette = map[console.Severity]color.Color{
	console.Info:    color.RGBA{0xC0, 0xC0, 0xC0, 0xFF},
	console.Success: color.RGBA{0x55, 0xFF, 0x55, 0xFF},
	console.Error:   color.RGBA{0xFF, 0x55, 0x55, 0xFF},
	console.Accent:  color.RGBA{0xFF, 0xFF, 0x55, 0xFF},
	console.Title:   color.RGBA{0x55, 0xFF, 0xFF, 0xFF},
}

var background = color.RGBA{0x10, 0x10, 0x28, 0xFF}

type Game struct {
	sh     *shell.Shell
	screen *console.Screen
	face   text.Face
	input  []byte
	done   bool
}

func NewGame(sh *shell.Shell, screen *console.Screen) *Game {
	return &Game{
		sh:     sh,
		screen: screen,
		face:   text.NewGoXFace(basicfont.Face7x13),
	}
}

// typeRune adds a printable ASCII character to the input line.
func (g *Game) typeRune(r rune) {
	if r < 0x20 || r > 0x7E || len(g.input) >= maxInput {
		return
	}
	g.input = append(g.input, byte(r))
}

func (g *Game) backspace() {
	if len(g.input) > 0 {
		g.input = g.input[:len(g.input)-1]
	}
}

// submit echoes the input line to the console and runs it.
func (g *Game) submit() {
	line := string(g.input)
	g.input = g.input[:0]
	g.screen.Println(shell.Prompt+line, console.Accent)
	if !g.sh.Exec(line) {
		g.done = true
	}
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		g.typeRune(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		g.submit()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.backspace()
	}
	if g.done {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) drawText(dst *ebiten.Image, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x*charWidth), float64(y*charHeight+1))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, g.face, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	for i, cell := range g.screen.Cells() {
		if cell.Char == 0 || cell.Char == ' ' {
			continue
		}
		x, y := grid.GetGridCoords(i, console.ScreenCols)
		g.drawText(screen, string(rune(cell.Char)), x, y, palette[cell.Severity])
	}

	line := shell.Prompt + string(g.input)
	if (time.Now().UnixMilli()/500)%2 == 0 {
		line += "_"
	}
	g.drawText(screen, line, 0, inputRow, palette[console.Accent])
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return console.ScreenCols * charWidth, (console.ScreenRows + 1) * charHeight
}

func main() {
	configPath := flag.String("config", config.FileName, "settings file")
	storagePath := flag.String("storage", "", "host directory the disk is loaded from and synced to")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *storagePath != "" {
		cfg.StoragePath = *storagePath
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
		commonlog.GetLogger("teaos.desktop").Infof("native execution unavailable: %s", err)
	}

	screen := console.NewScreen()
	sh := shell.New(disk, screen, exec, cfg.StepBudget)
	sh.Clear = screen.Clear
	sh.Welcome()

	// Start background disk syncer (flushes the dirty disk to the host every 3 s)
	stopSyncer := make(chan struct{})
	if cfg.StoragePath != "" {
		syncLog := commonlog.GetLogger("teaos.desktop")
		go disk.SyncEvery(cfg.StoragePath, 3*time.Second, stopSyncer, func(err error) {
			syncLog.Errorf("disk sync: %s", err)
		})
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(console.ScreenCols*charWidth*2, (console.ScreenRows+1)*charHeight*2)
	ebiten.SetWindowTitle("TeaOS")

	if err := ebiten.RunGame(NewGame(sh, screen)); err != nil {
		log.Fatal(err)
	}

	// Graceful shutdown: stop syncer and do a final flush
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
