package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/fsnotify/fsnotify"
)

// FingerprintsFromFile parses an OpenSSH authorized_keys-format file --
// one public key per line, blank lines and '#'-prefixed comments ignored
// -- and returns the SHA-256 fingerprint of each key. Used by /oplist
// load and /whitelist load, by WatchKeyFile, and by cmd/chatd for the
// --oplist/--whitelist startup flags.
func FingerprintsFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pubKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		out = append(out, Fingerprint(pubKey))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchKeyFile watches an authorized_keys-format file on disk and calls
// back with the freshly parsed fingerprint set whenever it changes, per
// spec.md §6's hot-reload requirement for --oplist and --whitelist.
// WatchKeyFile starts watching path and invokes onChange once immediately
// with the initial contents, then again on every subsequent write. The
// returned watcher should be closed by the caller at shutdown.
func WatchKeyFile(path string, onChange func([]string)) (*fsnotify.Watcher, error) {
	fps, err := FingerprintsFromFile(path)
	if err != nil {
		return nil, err
	}
	onChange(fps)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				fps, err := FingerprintsFromFile(path)
				if err != nil {
					continue // keep the last good set rather than clobbering it
				}
				onChange(fps)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}
