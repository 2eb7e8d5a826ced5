package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/retry"
	"github.com/mykube-run/krefresh/pkg/types"
)

var (
	// FileReadRetries is how many times a changed file is re-read when reading fails,
	// editors may replace files in several steps
	FileReadRetries = 3
	FileReadBackoff = time.Millisecond * 50
)

var _ types.ConfigClient = (*File)(nil)

// File serves configs from a local directory: data ids of types.DefaultGroup live in
// root, data ids of other groups in root/group. Parent directories are watched so
// that files replaced by editors keep being watched.
type File struct {
	*notifier
	lg      log.Logger
	root    string
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	paths map[string][2]string // file path -> (group, dataId)
	dirs  map[string]bool
	done  chan struct{}
}

func NewFileClient(root string, pub types.Publisher, lg log.Logger) (*File, error) {
	if lg == nil {
		lg = log.New("krefresh.file")
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid config directory %v: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("invalid config directory %v: not a directory", root)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize watcher: %w", err)
	}

	s := &File{
		notifier: newNotifier("", pub, lg),
		lg:       lg,
		root:     root,
		watcher:  w,
		paths:    make(map[string][2]string),
		dirs:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	go s.watch()
	return s, nil
}

// Path returns the file path of (group, dataId)
func (s *File) Path(dataId, group string) string {
	if group == "" || group == types.DefaultGroup {
		return filepath.Join(s.root, dataId)
	}
	return filepath.Join(s.root, group, dataId)
}

func (s *File) AddListener(dataId, group string, l types.Listener) error {
	first, err := s.add(group, dataId, l)
	if err != nil || !first {
		return err
	}

	p := s.Path(dataId, group)
	dir := filepath.Dir(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirs[dir] {
		if err = s.watcher.Add(dir); err != nil {
			s.remove(group, dataId)
			return fmt.Errorf("failed to watch %v: %w", dir, err)
		}
		s.dirs[dir] = true
	}
	s.paths[p] = [2]string{group, dataId}

	if byt, err := os.ReadFile(p); err == nil {
		s.seed(group, dataId, string(byt))
	} else {
		s.lg.Warn(fmt.Sprintf("failed to read initial config %v: %v", p, err))
	}
	return nil
}

func (s *File) GetConfig(dataId, group string) (string, error) {
	p := s.Path(dataId, group)
	byt, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to read config file %v: %w", p, err)
	}
	return string(byt), nil
}

func (s *File) Close() error {
	if !s.close() {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *File) watch() {
	defer close(s.done)
	for {
		select {
		case evt, ok := <-s.watcher.Events:
			if !ok {
				s.lg.Trace("file watcher has been closed, stop watching")
				return
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.handleEvent(evt)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.lg.Trace("file watcher has been closed, stop watching")
				return
			}
			s.lg.Error(fmt.Sprintf("file watcher error: %v", err))
		}
	}
}

func (s *File) handleEvent(evt fsnotify.Event) {
	s.mu.Lock()
	key, ok := s.paths[filepath.Clean(evt.Name)]
	s.mu.Unlock()
	if !ok {
		return
	}

	var byt []byte
	err := retry.WithInterval(func() (err error) {
		byt, err = os.ReadFile(evt.Name)
		return err
	}, FileReadRetries, FileReadBackoff, s.lg)
	if err != nil {
		s.lg.Error(fmt.Sprintf("failed to read updated config: %v", err))
		return
	}
	s.notify(key[0], key[1], string(byt))
}
