// receipt_inbox imports scanned receipts dropped into a per-user inbox
// folder. Each new image is OCRed for a total and recorded as an expense;
// processed files are moved aside so they are imported exactly once.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"spendtrack/models"
	"spendtrack/pkg/scan"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

var verbose bool

func main() {
	userID := flag.Uint("user-id", 0, "account to import expenses into (required)")
	dirFlag := flag.String("dir", "", "inbox directory (default UPLOAD_BASE/inbox/<user-id>)")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	dryRun := flag.Bool("dry-run", false, "scan and OCR without touching the database")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	_ = godotenv.Load()
	if *userID == 0 {
		log.Fatal("--user-id is required")
	}
	dir := *dirFlag
	if dir == "" {
		base := os.Getenv("UPLOAD_BASE")
		if base == "" {
			base = "uploads"
		}
		dir = filepath.Join(base, "inbox", fmt.Sprint(*userID))
	}

	if *dryRun {
		files := listImageFiles(dir)
		log.Printf("dry-run: %d candidate files in %s", len(files), dir)
		for _, f := range files {
			amount, matched, err := scan.ExtractAmount(filepath.Join(dir, f))
			if err != nil {
				log.Printf("OCR fail %s: %v", f, err)
				continue
			}
			log.Printf("OCR %s amount=%s matched=%q", f, amount.StringFixed(2), matched)
		}
		return
	}

	db = mustInitDBFromEnv()
	var user models.User
	if err := db.First(&user, *userID).Error; err != nil {
		log.Fatalf("user %d not found: %v", *userID, err)
	}

	imported := preloadImported(user.ID)
	files := listImageFiles(dir)
	log.Printf("scanning %d files in %s (workers=%d)", len(files), dir, effectiveWorkers(*workers))
	runWorkerPool(dir, &user, imported, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchInbox(dir, &user, imported, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// importedSet tracks file names already turned into expenses, preloaded once
// so the per-file path stays query-free on the happy skip.
type importedSet struct {
	mu    sync.Mutex
	names map[string]bool
}

func preloadImported(userID uint) *importedSet {
	s := &importedSet{names: make(map[string]bool, 256)}
	var descs []string
	if err := db.Model(&models.Expense{}).
		Where("user_id = ? AND notes = ?", userID, inboxNote).
		Pluck("description", &descs).Error; err == nil {
		for _, d := range descs {
			s.names[d] = true
		}
	}
	return s
}

func (s *importedSet) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[name]
}

func (s *importedSet) put(name string) {
	s.mu.Lock()
	s.names[name] = true
	s.mu.Unlock()
}

const inboxNote = "imported from receipt inbox"

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func runWorkerPool(dir string, user *models.User, imported *importedSet, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processInboxFile(dir, name, user, imported)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// watchInbox debounces create events so half-written files are not OCRed.
func watchInbox(dir string, user *models.User, imported *importedSet, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	go runWorkerPool(dir, user, imported, nil, workers, fileCh)
	select {} // Ctrl+C to exit
}

// processInboxFile OCRs one receipt image and records it as an uncategorized
// expense dated today. Idempotent: a file already imported is skipped.
func processInboxFile(dir, name string, user *models.User, imported *importedSet) {
	if imported.has(name) {
		logV("SKIP already imported %s", name)
		return
	}
	fullPath := filepath.Join(dir, name)
	amount, matched, err := scan.ExtractAmount(fullPath)
	if err != nil {
		log.Printf("OCR fail %s: %v", name, err)
		return
	}
	if amount.IsZero() {
		logV("OCR found no amount in %s", name)
		return
	}

	// re-check against the DB in case another run imported it concurrently
	var cnt int64
	db.Model(&models.Expense{}).
		Where("user_id = ? AND description = ? AND notes = ?", user.ID, name, inboxNote).
		Count(&cnt)
	if cnt > 0 {
		imported.put(name)
		return
	}

	now := time.Now().UTC()
	exp := models.Expense{
		UserID:      user.ID,
		Amount:      amount,
		Description: name,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Notes:       inboxNote,
	}
	if err := db.Create(&exp).Error; err != nil {
		log.Printf("ERROR create expense for %s: %v", name, err)
		return
	}
	imported.put(name)
	log.Printf("IMPORTED %s amount=%s matched=%q expense=%d", name, amount.StringFixed(2), matched, exp.ID)

	if err := moveToProcessed(dir, name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	}
}

// moveToProcessed relocates an imported file into <dir>/processed/.
func moveToProcessed(dir, name string) error {
	processedDir := filepath.Join(dir, "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(dir, name), filepath.Join(processedDir, name))
}
