package agent

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/logger"
)

// cloudInitLogPath is the file cloud-init always writes to; its first
// line is always the log stream's first event (§5).
const cloudInitLogPath = "/var/log/cloud-init-output.log"

// LogStreamer tails the cloud-init output plus any configured extra
// log files and forwards new lines to CloudWatch Logs, grounded on
// host.py's log_watcher() (inotify MODIFY loop replaced by fsnotify).
type LogStreamer struct {
	clients       *cloudapi.Clients
	logGroup      string
	streamName    string
	extraLogs     []string
	offsets       map[string]int64
	sequenceToken *string
}

// NewLogStreamer constructs a streamer for one job's log stream.
func NewLogStreamer(clients *cloudapi.Clients, logGroup, jobid string, extraLogs []string) *LogStreamer {
	return &LogStreamer{
		clients:    clients,
		logGroup:   logGroup,
		streamName: jobid,
		extraLogs:  extraLogs,
		offsets:    map[string]int64{},
	}
}

// Run creates the log stream and then blocks, forwarding new lines
// from every watched file until ctx is canceled. It is meant to run
// as the background cooperative task of §5.
func (s *LogStreamer) Run(ctx context.Context) error {
	if err := s.clients.CreateLogStream(ctx, s.logGroup, s.streamName); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	paths := append([]string{cloudInitLogPath}, s.extraLogs...)
	watched := map[string]bool{}
	for _, p := range paths {
		watched[filepath.Clean(p)] = true
		go s.watchWhenPresent(ctx, watcher, p)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// The watch is on each file's directory; skip its other files.
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			s.flush(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("log watcher error: %v", err)
		}
	}
}

// watchWhenPresent polls for path to appear (a job's extra log file
// may not exist yet when the agent starts) before registering a
// watch on its containing directory.
func (s *LogStreamer) watchWhenPresent(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			_ = watcher.Add(filepath.Dir(path))
			s.flush(ctx, path)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// flush reads any bytes appended to path since the last read and
// posts them as a timestamped batch, threading the sequence token.
func (s *LogStreamer) flush(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	offset := s.offsets[path]
	if _, err := f.Seek(offset, 0); err != nil {
		return
	}

	var events []cloudapi.LogEvent
	scanner := bufio.NewScanner(f)
	now := time.Now().UnixMilli()
	read := offset
	for scanner.Scan() {
		line := scanner.Text()
		read += int64(len(line)) + 1
		events = append(events, cloudapi.LogEvent{TimestampMillis: now, Message: line})
	}
	if len(events) == 0 {
		return
	}
	s.offsets[path] = read

	token, err := s.clients.PutLogEvents(ctx, s.logGroup, s.streamName, events, s.sequenceToken)
	if err != nil {
		logger.Errorf("posting log events from %s: %v", path, err)
		return
	}
	s.sequenceToken = token
}
