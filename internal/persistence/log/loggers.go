package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	AuditChatFlagged       = "CHAT_FLAGGED"
	AuditInteractProtected = "INTERACT_PROTECTED"
	AuditBannedConnect     = "BANNED_CONNECT"
)

const hourLayout = "2006-01-02-15"

type AuditEntry struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Session string    `json:"session,omitempty"`
	Player  string    `json:"player,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// segment is one open hourly file.
type segment struct {
	hour string
	f    *os.File
	enc  *zstd.Encoder
	buf  *bufio.Writer
}

func openSegment(path, hour string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{hour: hour, f: f, enc: enc, buf: bufio.NewWriterSize(enc, 32*1024)}, nil
}

func (s *segment) append(line []byte) error {
	if _, err := s.buf.Write(line); err != nil {
		return err
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return err
	}
	return s.buf.Flush()
}

func (s *segment) close() error {
	err := s.buf.Flush()
	err = errors.Join(err, s.enc.Close())
	return errors.Join(err, s.f.Close())
}

// AuditLogger appends audit entries as JSON lines to zstd files
// <dir>/audit-YYYY-MM-DD-HH.jsonl.zst, one file per UTC hour of the entry
// time. Safe for concurrent use.
type AuditLogger struct {
	dir string

	mu  sync.Mutex
	cur *segment
}

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{dir: filepath.Join(dataDir, "audit")}
}

// WriteAudit stamps entries without a time with the current time.
func (l *AuditLogger) WriteAudit(e AuditEntry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Time = e.Time.UTC()
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	hour := e.Time.Format(hourLayout)
	if l.cur == nil || l.cur.hour != hour {
		if l.cur != nil {
			if err := l.cur.close(); err != nil {
				return fmt.Errorf("audit rotate: %w", err)
			}
			l.cur = nil
		}
		seg, err := openSegment(l.pathFor(hour), hour)
		if err != nil {
			return fmt.Errorf("audit open: %w", err)
		}
		l.cur = seg
	}
	return l.cur.append(line)
}

func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == nil {
		return nil
	}
	err := l.cur.close()
	l.cur = nil
	return err
}

func (l *AuditLogger) pathFor(hour string) string {
	return filepath.Join(l.dir, "audit-"+hour+".jsonl.zst")
}

// AuditFiles lists the audit files under dataDir, oldest first.
func AuditFiles(dataDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "audit", "audit-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadAudit decodes every entry of one audit file. A reopened hour holds
// several concatenated zstd frames; the decoder reads them in sequence.
func ReadAudit(path string) ([]AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []AuditEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
