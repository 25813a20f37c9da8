package membership

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/model"
)

// ZKWatcher watches ChildrenW on a tablet-server registry znode and diffs
// successive children lists into Deltas, grounded on ZKMembership's
// RunWatch loop.
type ZKWatcher struct {
	conn *zk.Conn
	path string
	log  *zap.Logger
}

// NewZKWatcher dials ZooKeeper and returns a Watcher rooted at path.
func NewZKWatcher(hosts []string, path string, sessionTimeout time.Duration, log *zap.Logger) (*ZKWatcher, error) {
	conn, _, err := zk.Connect(hosts, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zk connect: %w", err)
	}
	return &ZKWatcher{conn: conn, path: path, log: log}, nil
}

// Close releases the underlying ZooKeeper session.
func (w *ZKWatcher) Close() {
	w.conn.Close()
}

// Watch implements Watcher. Each znode child is expected to be named
// "host:port#session"; parseChild tolerates a bare "host:port" too.
func (w *ZKWatcher) Watch(ctx context.Context) (<-chan Delta, error) {
	out := make(chan Delta)

	go func() {
		defer close(out)

		previous := make(map[model.TabletServerID]struct{})
		first := true
		for {
			children, _, ch, err := w.conn.ChildrenW(w.path)
			if err != nil {
				w.log.Warn("membership ChildrenW failed, retrying", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
					continue
				}
			}

			current := make(map[model.TabletServerID]struct{}, len(children))
			for _, c := range children {
				tsi, ok := parseChild(c)
				if !ok {
					w.log.Warn("skipping malformed tserver znode", zap.String("child", c))
					continue
				}
				current[tsi] = struct{}{}
			}

			added, removed := diff(previous, current)
			currentList := make([]model.TabletServerID, 0, len(current))
			for tsi := range current {
				currentList = append(currentList, tsi)
			}

			if len(added) > 0 || len(removed) > 0 || first {
				select {
				case out <- Delta{Current: currentList, Added: added, Removed: removed}:
				case <-ctx.Done():
					return
				}
			}
			previous = current
			first = false

			select {
			case <-ch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// parseChild parses a znode name of the form "host:port" or
// "host:port#session" into a TabletServerID.
func parseChild(name string) (model.TabletServerID, bool) {
	base, session := name, ""
	if i := strings.IndexByte(name, '#'); i >= 0 {
		base, session = name[:i], name[i+1:]
	}
	i := strings.LastIndexByte(base, ':')
	if i < 0 {
		return model.TabletServerID{}, false
	}
	port, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return model.TabletServerID{}, false
	}
	return model.TabletServerID{Host: base[:i], Port: port, Session: session}, true
}
