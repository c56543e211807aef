package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calsweep/calsweep/internal/storage"
	log "github.com/sirupsen/logrus"
)

const (
	userLogMaxAge   = 30 * 24 * time.Hour
	userLogMaxSize  = 1_000_000
	userLogMaxLines = 1000
)

// SyncLogger separates the two audiences of a sync run: Technical feeds the
// operator-facing stream with full detail, User feeds the terse per-user
// log shown in the dashboard. User messages never carry stack traces.
type SyncLogger interface {
	Technical(format string, args ...any)
	User(msg string)
}

// FileSyncLogger writes technical messages to logrus and user messages to
// both logrus and a per-user log file with timestamps.
type FileSyncLogger struct {
	userId  string
	logPath string
}

func NewFileSyncLogger(logDir string, userId string) *FileSyncLogger {
	l := &FileSyncLogger{userId: userId}
	// The id ends up in a file path; an unsafe one keeps the logrus channel
	// but gets no file.
	if storage.ValidUserId(userId) {
		l.logPath = UserLogPath(logDir, userId)
	} else {
		log.Errorf("refusing user log file for invalid user id %q", userId)
	}
	return l
}

func UserLogPath(logDir string, userId string) string {
	return filepath.Join(logDir, userId+".log")
}

func (l *FileSyncLogger) Technical(format string, args ...any) {
	log.Infof("[user %s] "+format, append([]any{l.userId}, args...)...)
}

func (l *FileSyncLogger) User(msg string) {
	log.Infof("[user %s] %s", l.userId, msg)

	if l.logPath == "" {
		return
	}
	l.rotateIfNeeded()
	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.Errorf("failed to open user log %s: %v", l.logPath, err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "[%s] %s\n", time.Now().Format("2006-01-02 15:04"), msg)
}

// rotateIfNeeded keeps the per-user log bounded: files older than 30 days
// restart empty, oversized files keep only the most recent lines.
func (l *FileSyncLogger) rotateIfNeeded() {
	info, err := os.Stat(l.logPath)
	if err != nil {
		return
	}

	if time.Since(info.ModTime()) > userLogMaxAge {
		if err := os.Remove(l.logPath); err != nil {
			log.Errorf("failed to rotate user log %s: %v", l.logPath, err)
		}
		return
	}

	if info.Size() > userLogMaxSize {
		data, err := os.ReadFile(l.logPath)
		if err != nil {
			return
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) > userLogMaxLines {
			trimmed := strings.Join(lines[len(lines)-userLogMaxLines:], "\n") + "\n"
			if err := os.WriteFile(l.logPath, []byte(trimmed), 0o600); err != nil {
				log.Errorf("failed to trim user log %s: %v", l.logPath, err)
			}
		}
	}
}

// ReadUserLog returns up to maxLines of the most recent user log entries.
func ReadUserLog(logDir string, userId string, maxLines int) ([]string, error) {
	if !storage.ValidUserId(userId) {
		return nil, storage.ErrInvalidUserId
	}
	data, err := os.ReadFile(UserLogPath(logDir, userId))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

// RecordingLogger captures messages for assertions in tests.
type RecordingLogger struct {
	TechnicalMsgs []string
	UserMsgs      []string
}

func (l *RecordingLogger) Technical(format string, args ...any) {
	l.TechnicalMsgs = append(l.TechnicalMsgs, fmt.Sprintf(format, args...))
}

func (l *RecordingLogger) User(msg string) {
	l.UserMsgs = append(l.UserMsgs, msg)
}
